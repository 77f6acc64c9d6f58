package monitoring

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vetpms/vetpms/internal/platform/auth"
	"github.com/vetpms/vetpms/pkg/apperr"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create stores a new plan in DRAFT. Drafts never touch the quota, so a
// practice at its cap can still prepare plans and activate them later.
func (s *Service) Create(ctx context.Context, caller *auth.Caller, p *Plan) error {
	if p.Title == "" {
		return apperr.Validation("title is required")
	}
	if p.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	p.Status = StatusDraft
	if caller != nil {
		p.CreatedBy = caller.PrincipalID
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Plan, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Plan, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// Update edits a plan's content. Status is changed only through
// ChangeStatus; archived plans are read-only.
func (s *Service) Update(ctx context.Context, p *Plan) error {
	if p.Title == "" {
		return apperr.Validation("title is required")
	}
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if existing.Status == StatusArchived {
		return apperr.Validation("archived plans cannot be edited")
	}
	p.PatientID = existing.PatientID
	p.Status = existing.Status
	p.ActivatedAt = existing.ActivatedAt
	p.CreatedBy = existing.CreatedBy
	return s.repo.Update(ctx, p)
}

// ChangeStatus drives the plan lifecycle. Transitions into ACTIVE go
// through the quota-checked activation; every other transition is a plain
// update guarded by the transition table.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, next PlanStatus) (*Plan, error) {
	if !validStatuses[next] {
		return nil, apperr.Validation("unknown plan status %q", next)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == next {
		return p, nil
	}
	if !canTransition(p.Status, next) {
		return nil, apperr.Validation("cannot transition plan from %s to %s", p.Status, next)
	}

	if next == StatusActive {
		activated, err := s.repo.Activate(ctx, id)
		if err != nil {
			return nil, err
		}
		s.logger.Info().
			Str("plan_id", id.String()).
			Str("patient_id", activated.PatientID.String()).
			Msg("plan activated")
		return activated, nil
	}

	p.Status = next
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("plan_id", p.ID.String()).
		Str("status", string(next)).
		Msg("plan status changed")
	return p, nil
}
