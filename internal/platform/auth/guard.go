package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vetpms/vetpms/pkg/apperr"
)

// Authorize checks a caller against required permissions. A nil return
// means allow. The tenant owner is always allowed. With requireAll the
// caller must hold every listed permission; otherwise one is enough.
//
// Pure function of the caller's role and permission set.
func Authorize(caller *Caller, required []Permission, requireAll bool) error {
	if caller == nil {
		return apperr.Authentication(authFailedMsg)
	}
	if caller.Role == RoleTenantOwner {
		return nil
	}

	if requireAll {
		for _, p := range required {
			if !caller.Permissions.Has(p) {
				return denyError(required)
			}
		}
		return nil
	}

	for _, p := range required {
		if caller.Permissions.Has(p) {
			return nil
		}
	}
	return denyError(required)
}

func denyError(required []Permission) error {
	names := make([]string, len(required))
	for i, p := range required {
		names[i] = string(p)
	}
	return apperr.Authorization("required permission: %s", strings.Join(names, " or "))
}

// RequirePermission returns middleware that allows the request through when
// the resolved caller holds at least one of the given permissions.
func RequirePermission(perms ...Permission) echo.MiddlewareFunc {
	return requireMiddleware(perms, false)
}

// RequireAllPermissions is like RequirePermission but demands every listed
// permission.
func RequireAllPermissions(perms ...Permission) echo.MiddlewareFunc {
	return requireMiddleware(perms, true)
}

func requireMiddleware(perms []Permission, requireAll bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := CallerFromContext(c.Request().Context())
			if err := Authorize(caller, perms, requireAll); err != nil {
				return err
			}
			return next(c)
		}
	}
}
