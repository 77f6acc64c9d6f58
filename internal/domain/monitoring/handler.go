package monitoring

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
	read := api.Group("", auth.RequirePermission(auth.PermViewPlan))
	read.GET("/plans", h.List)
	read.GET("/plans/:id", h.Get)

	api.POST("/plans", h.Create, auth.RequirePermission(auth.PermCreatePlan))
	api.PUT("/plans/:id", h.Update, auth.RequirePermission(auth.PermEditPlan))
	api.PUT("/plans/:id/status", h.ChangeStatus, auth.RequirePermission(auth.PermActivatePlan, auth.PermEditPlan))
}

func (h *Handler) Create(c echo.Context) error {
	var p Plan
	if err := c.Bind(&p); err != nil {
		return apperr.Validation("invalid request body")
	}
	caller := auth.CallerFromContext(c.Request().Context())
	if err := h.svc.Create(c.Request().Context(), caller, &p); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid plan id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)

	if pid := c.QueryParam("patient_id"); pid != "" {
		patientID, err := uuid.Parse(pid)
		if err != nil {
			return apperr.Validation("invalid patient_id")
		}
		plans, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, p.Limit, p.Offset)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(plans, total, p.Limit, p.Offset))
	}

	plans, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(plans, total, p.Limit, p.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid plan id")
	}
	var p Plan
	if err := c.Bind(&p); err != nil {
		return apperr.Validation("invalid request body")
	}
	p.ID = id
	if err := h.svc.Update(c.Request().Context(), &p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

type statusChangeRequest struct {
	Status PlanStatus `json:"status"`
}

func (h *Handler) ChangeStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid plan id")
	}
	var req statusChangeRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	// Activation is quota-bearing; it needs the activation permission
	// specifically, not just plan editing.
	if req.Status == StatusActive {
		caller := auth.CallerFromContext(c.Request().Context())
		if err := auth.Authorize(caller, []auth.Permission{auth.PermActivatePlan}, false); err != nil {
			return err
		}
	}
	p, err := h.svc.ChangeStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
