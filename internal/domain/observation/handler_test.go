package observation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vetpms/vetpms/internal/platform/auth"
	"github.com/vetpms/vetpms/pkg/apperr"
)

// newTestServer registers the observation routes behind a middleware that
// injects the given caller, the way the resolution middleware does in the
// live chain.
func newTestServer(svc *Service, caller *auth.Caller) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if !c.Response().Committed {
			c.NoContent(apperr.HTTPStatus(err))
		}
	}
	api := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := context.WithValue(c.Request().Context(), auth.CallerKey, caller)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	NewHandler(svc).RegisterRoutes(api)
	return e
}

func callerWithRole(role auth.Role) *auth.Caller {
	return &auth.Caller{
		PrincipalID: uuid.NewString(),
		TenantID:    "riverside",
		Role:        role,
		Permissions: auth.DefaultProfiles().Resolve(role),
	}
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_TechnicianCanRecord(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	tpl := seedTemplate(t, svc, &Template{Name: "pain score", DataType: TypeNumeric, MinValue: fptr(0), MaxValue: fptr(10)})

	e := newTestServer(svc, callerWithRole(auth.RoleTechnician))
	rec := serve(e, http.MethodPost, "/api/v1/observations",
		`{"template_id":"`+tpl.ID.String()+`","value":5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("technician should be able to record, got %d", rec.Code)
	}
}

func TestRoutes_AssistantCannotRecord(t *testing.T) {
	svc := newTestService(newMockStore())

	e := newTestServer(svc, callerWithRole(auth.RoleAssistant))
	rec := serve(e, http.MethodPost, "/api/v1/observations",
		`{"template_id":"`+uuid.NewString()+`","value":5}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("assistant must not record observations, got %d", rec.Code)
	}
}

func TestRoutes_TechnicianCannotManageTemplates(t *testing.T) {
	svc := newTestService(newMockStore())

	e := newTestServer(svc, callerWithRole(auth.RoleTechnician))
	rec := serve(e, http.MethodPost, "/api/v1/templates",
		`{"name":"pain score","data_type":"NUMERIC","plan_id":"`+uuid.NewString()+`"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("technician must not manage templates, got %d", rec.Code)
	}
}

func TestRoutes_AssistantCanViewObservations(t *testing.T) {
	svc := newTestService(newMockStore())

	e := newTestServer(svc, callerWithRole(auth.RoleAssistant))
	rec := serve(e, http.MethodGet, "/api/v1/observations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("assistant should view observations, got %d", rec.Code)
	}
}
