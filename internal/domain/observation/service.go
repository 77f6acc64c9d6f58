package observation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vetpms/vetpms/internal/platform/auth"
	"github.com/vetpms/vetpms/pkg/apperr"
)

// noteTemplateName is the display name the bootstrap gives the singleton
// free-text template.
const noteTemplateName = "Clinical note"

type Service struct {
	templates TemplateRepository
	records   RecordRepository
	logger    zerolog.Logger
}

func NewService(templates TemplateRepository, records RecordRepository, logger zerolog.Logger) *Service {
	return &Service{templates: templates, records: records, logger: logger}
}

// CreateTemplate stores a new observation template. NOTE templates are not
// created here; the singleton comes from EnsureNoteTemplate.
func (s *Service) CreateTemplate(ctx context.Context, t *Template) error {
	if t.DataType == TypeNote {
		return apperr.Validation("note templates are managed automatically; record a note instead")
	}
	if err := validateTemplate(t); err != nil {
		return err
	}
	if err := s.templates.CreateTemplate(ctx, t); err != nil {
		return err
	}
	s.logger.Info().
		Str("template_id", t.ID.String()).
		Str("data_type", string(t.DataType)).
		Msg("observation template created")
	return nil
}

func (s *Service) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	return s.templates.GetTemplate(ctx, id)
}

func (s *Service) ListTemplates(ctx context.Context, limit, offset int) ([]*Template, int, error) {
	return s.templates.ListTemplates(ctx, limit, offset)
}

func (s *Service) ListTemplatesByPlan(ctx context.Context, planID uuid.UUID) ([]*Template, error) {
	return s.templates.ListTemplatesByPlan(ctx, planID)
}

// UpdateTemplate edits a template's name and constraints. Existing records
// stay valid; constraints only apply to values recorded afterwards. The
// data type and plan binding never change.
func (s *Service) UpdateTemplate(ctx context.Context, t *Template) error {
	existing, err := s.templates.GetTemplate(ctx, t.ID)
	if err != nil {
		return err
	}
	t.DataType = existing.DataType
	t.PlanID = existing.PlanID
	if err := validateTemplate(t); err != nil {
		return err
	}
	return s.templates.UpdateTemplate(ctx, t)
}

func validateTemplate(t *Template) error {
	if t.Name == "" {
		return apperr.Validation("name is required")
	}
	if !validDataTypes[t.DataType] {
		return apperr.Validation("unknown data type %q", t.DataType)
	}
	if t.PlanID == uuid.Nil {
		return apperr.Validation("plan_id is required")
	}

	switch t.DataType {
	case TypeNumeric, TypeScale:
		if t.MinValue != nil && t.MaxValue != nil && *t.MinValue > *t.MaxValue {
			return apperr.Validation("min_value must not exceed max_value")
		}
		if len(t.Options) > 0 {
			return apperr.Validation("options only apply to enumeration templates")
		}
	case TypeEnumeration:
		if len(t.Options) == 0 {
			return apperr.Validation("enumeration templates require at least one option")
		}
		seen := make(map[string]bool, len(t.Options))
		for _, opt := range t.Options {
			if opt == "" {
				return apperr.Validation("options must not be empty")
			}
			if seen[opt] {
				return apperr.Validation("duplicate option %q", opt)
			}
			seen[opt] = true
		}
		if t.MinValue != nil || t.MaxValue != nil {
			return apperr.Validation("bounds only apply to numeric and scale templates")
		}
	default:
		if t.MinValue != nil || t.MaxValue != nil {
			return apperr.Validation("bounds only apply to numeric and scale templates")
		}
		if len(t.Options) > 0 {
			return apperr.Validation("options only apply to enumeration templates")
		}
	}
	return nil
}

// EnsureNoteTemplate returns the tenant's singleton NOTE template, creating
// it on first use. The insert is guarded by a unique constraint, so two
// concurrent callers converge on the same row instead of creating two. If
// duplicates exist from before the constraint, the earliest-created wins.
func (s *Service) EnsureNoteTemplate(ctx context.Context) (*Template, error) {
	existing, err := s.templates.NoteTemplates(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 1 {
		s.logger.Warn().
			Int("count", len(existing)).
			Str("template_id", existing[0].ID.String()).
			Msg("multiple note templates found, using earliest created")
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	planID, err := s.templates.FirstPlanID(ctx)
	if err != nil {
		return nil, err
	}

	t := &Template{PlanID: planID, Name: noteTemplateName, DataType: TypeNote}
	if err := s.templates.InsertNoteTemplate(ctx, t); err != nil {
		return nil, err
	}

	// Re-read rather than trusting our insert: a concurrent bootstrap may
	// have won the race, and both callers must return the surviving row.
	created, err := s.templates.NoteTemplates(ctx)
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, apperr.New(apperr.KindInternal, "note template bootstrap produced no template")
	}

	s.logger.Info().
		Str("template_id", created[0].ID.String()).
		Msg("note template bootstrapped")
	return created[0], nil
}

// RecordValue validates a value against its template and appends an
// immutable record. Validation uses the template's constraints as they are
// right now; later template edits never invalidate what was recorded.
func (s *Service) RecordValue(ctx context.Context, caller *auth.Caller, rec *Record) (*Record, error) {
	if rec.TemplateID == uuid.Nil {
		return nil, apperr.Validation("template_id is required")
	}
	tpl, err := s.templates.GetTemplate(ctx, rec.TemplateID)
	if err != nil {
		return nil, err
	}
	if err := ValidateValue(tpl, rec.Value); err != nil {
		return nil, err
	}

	if caller != nil {
		rec.RecordedBy = caller.PrincipalID
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	if err := s.records.CreateRecord(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("record_id", rec.ID.String()).
		Str("template_id", tpl.ID.String()).
		Str("data_type", string(tpl.DataType)).
		Msg("observation recorded")
	return rec, nil
}

// RecordNote is the free-text shortcut: it bootstraps the singleton NOTE
// template if needed and records against it.
func (s *Service) RecordNote(ctx context.Context, caller *auth.Caller, note string) (*Record, error) {
	if note == "" {
		return nil, apperr.Validation("note is required")
	}
	tpl, err := s.EnsureNoteTemplate(ctx)
	if err != nil {
		return nil, err
	}
	rec := &Record{TemplateID: tpl.ID, Note: note}
	return s.RecordValue(ctx, caller, rec)
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.records.GetRecord(ctx, id)
}

func (s *Service) ListRecords(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	return s.records.ListRecords(ctx, limit, offset)
}

func (s *Service) ListRecordsByTemplate(ctx context.Context, templateID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	return s.records.ListRecordsByTemplate(ctx, templateID, limit, offset)
}
