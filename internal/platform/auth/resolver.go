package auth

import (
	"context"

	"github.com/vetpms/vetpms/pkg/apperr"
)

// Caller is a resolved, authenticated principal: the staff member behind the
// request, scoped to one tenant, with their effective permissions computed.
type Caller struct {
	PrincipalID string
	TenantID    string
	Role        Role
	Permissions PermissionSet
}

// Can reports whether the caller holds the given permission. The tenant
// owner holds every permission.
func (c *Caller) Can(p Permission) bool {
	if c == nil {
		return false
	}
	if c.Role == RoleTenantOwner {
		return true
	}
	return c.Permissions.Has(p)
}

// Principal is the staff directory's view of an account.
type Principal struct {
	ID       string
	TenantID string
	Role     Role
	Active   bool
}

// StaffDirectory resolves a verified token subject to a staff account. The
// staff domain provides the production implementation; tests supply fakes.
type StaffDirectory interface {
	FindBySubject(ctx context.Context, subject string) (*Principal, error)
}

// Resolver turns token subjects into callers.
type Resolver struct {
	dir      StaffDirectory
	profiles Profiles
}

func NewResolver(dir StaffDirectory, profiles Profiles) *Resolver {
	return &Resolver{dir: dir, profiles: profiles}
}

// authFailedMsg is shared by the unknown-subject and deactivated-account
// paths so a probe cannot learn whether an account exists.
const authFailedMsg = "authentication failed"

// ResolveCaller looks the subject up in the staff directory and computes the
// effective permission set. Pure lookup, no side effects.
func (r *Resolver) ResolveCaller(ctx context.Context, subject string) (*Caller, error) {
	if subject == "" {
		return nil, apperr.Authentication(authFailedMsg)
	}

	p, err := r.dir.FindBySubject(ctx, subject)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Authentication(authFailedMsg)
		}
		return nil, apperr.Wrap(apperr.KindInternal, err, "resolve caller")
	}
	if p == nil || !p.Active {
		return nil, apperr.Authentication(authFailedMsg)
	}

	return &Caller{
		PrincipalID: p.ID,
		TenantID:    p.TenantID,
		Role:        p.Role,
		Permissions: r.profiles.Resolve(p.Role),
	}, nil
}
