package observation

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vetpms/vetpms/internal/platform/auth"
	"github.com/vetpms/vetpms/pkg/apperr"
	"github.com/vetpms/vetpms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	manage := api.Group("", auth.RequirePermission(auth.PermManageTemplates))
	manage.POST("/templates", h.CreateTemplate)
	manage.PUT("/templates/:id", h.UpdateTemplate)

	view := api.Group("", auth.RequirePermission(auth.PermViewObservations))
	view.GET("/templates", h.ListTemplates)
	view.GET("/templates/:id", h.GetTemplate)
	view.GET("/observations", h.ListRecords)
	view.GET("/observations/:id", h.GetRecord)

	record := api.Group("", auth.RequirePermission(auth.PermRecordObs))
	record.POST("/observations", h.RecordValue)
	record.POST("/observations/notes", h.RecordNote)
}

func (h *Handler) CreateTemplate(c echo.Context) error {
	var t Template
	if err := c.Bind(&t); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := h.svc.CreateTemplate(c.Request().Context(), &t); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTemplate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid template id")
	}
	t, err := h.svc.GetTemplate(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListTemplates(c echo.Context) error {
	if pid := c.QueryParam("plan_id"); pid != "" {
		planID, err := uuid.Parse(pid)
		if err != nil {
			return apperr.Validation("invalid plan_id")
		}
		templates, err := h.svc.ListTemplatesByPlan(c.Request().Context(), planID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, templates)
	}

	p := pagination.FromContext(c)
	templates, total, err := h.svc.ListTemplates(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(templates, total, p.Limit, p.Offset))
}

func (h *Handler) UpdateTemplate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid template id")
	}
	var t Template
	if err := c.Bind(&t); err != nil {
		return apperr.Validation("invalid request body")
	}
	t.ID = id
	if err := h.svc.UpdateTemplate(c.Request().Context(), &t); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

type recordRequest struct {
	TemplateID uuid.UUID   `json:"template_id"`
	Value      interface{} `json:"value"`
	Note       string      `json:"note"`
}

func (h *Handler) RecordValue(c echo.Context) error {
	var req recordRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	caller := auth.CallerFromContext(c.Request().Context())
	rec := &Record{TemplateID: req.TemplateID, Value: req.Value, Note: req.Note}
	created, err := h.svc.RecordValue(c.Request().Context(), caller, rec)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) RecordNote(c echo.Context) error {
	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	caller := auth.CallerFromContext(c.Request().Context())
	created, err := h.svc.RecordNote(c.Request().Context(), caller, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid observation id")
	}
	rec, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListRecords(c echo.Context) error {
	p := pagination.FromContext(c)

	if tid := c.QueryParam("template_id"); tid != "" {
		templateID, err := uuid.Parse(tid)
		if err != nil {
			return apperr.Validation("invalid template_id")
		}
		records, total, err := h.svc.ListRecordsByTemplate(c.Request().Context(), templateID, p.Limit, p.Offset)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(records, total, p.Limit, p.Offset))
	}

	records, total, err := h.svc.ListRecords(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, p.Limit, p.Offset))
}
