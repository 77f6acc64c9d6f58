package tenant

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) error
	List(ctx context.Context, limit, offset int) ([]*Tenant, int, error)

	// Delete removes a tenant registration outright. Only the onboarding
	// rollback uses it; a live practice is deactivated, never deleted.
	Delete(ctx context.Context, id uuid.UUID) error
}
