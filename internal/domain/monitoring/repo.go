package monitoring

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	Update(ctx context.Context, p *Plan) error
	List(ctx context.Context, limit, offset int) ([]*Plan, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Plan, int, error)
	CountActive(ctx context.Context) (int, error)

	// Activate flips the plan to ACTIVE inside one transaction that locks
	// the tenant row, recounts ACTIVE plans, and re-checks the quota, so
	// two concurrent activations cannot both squeeze under the cap.
	Activate(ctx context.Context, id uuid.UUID) (*Plan, error)
}
