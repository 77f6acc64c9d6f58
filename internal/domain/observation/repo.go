package observation

import (
	"context"

	"github.com/google/uuid"
)

// TemplateRepository stores observation templates.
type TemplateRepository interface {
	CreateTemplate(ctx context.Context, t *Template) error
	GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error)
	UpdateTemplate(ctx context.Context, t *Template) error
	ListTemplates(ctx context.Context, limit, offset int) ([]*Template, int, error)
	ListTemplatesByPlan(ctx context.Context, planID uuid.UUID) ([]*Template, error)

	// NoteTemplates returns every NOTE template for the tenant, earliest
	// created first. More than one means a historical duplicate slipped in
	// before the unique constraint; callers pick the first.
	NoteTemplates(ctx context.Context) ([]*Template, error)

	// InsertNoteTemplate inserts a NOTE template unless the tenant already
	// has one. The partial unique index makes the insert a no-op for the
	// loser of a concurrent race instead of an error.
	InsertNoteTemplate(ctx context.Context, t *Template) error

	// FirstPlanID returns the tenant's earliest-created monitoring plan,
	// the container a bootstrapped NOTE template attaches to.
	FirstPlanID(ctx context.Context) (uuid.UUID, error)
}

// RecordRepository stores observation records. Records are append-only;
// there is deliberately no update or delete.
type RecordRepository interface {
	CreateRecord(ctx context.Context, r *Record) error
	GetRecord(ctx context.Context, id uuid.UUID) (*Record, error)
	ListRecords(ctx context.Context, limit, offset int) ([]*Record, int, error)
	ListRecordsByTemplate(ctx context.Context, templateID uuid.UUID, limit, offset int) ([]*Record, int, error)
}
