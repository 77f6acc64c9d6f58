package patient

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vetpms/vetpms/pkg/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if err := validate(p); err != nil {
		return err
	}
	p.Active = true
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if err := validate(p); err != nil {
		return err
	}
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.Active = existing.Active
	return s.repo.Update(ctx, p)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Search(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.Search(ctx, name, limit, offset)
}

// Deactivate hides a patient from listings. Records referencing the patient
// are kept.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.Active {
		return nil
	}
	p.Active = false
	return s.repo.Update(ctx, p)
}

func validate(p *Patient) error {
	if p.Name == "" {
		return apperr.Validation("name is required")
	}
	if p.Species == "" {
		return apperr.Validation("species is required")
	}
	if p.OwnerName == "" {
		return apperr.Validation("owner_name is required")
	}
	if p.Sex == "" {
		p.Sex = SexUnknown
	}
	if !validSexes[p.Sex] {
		return apperr.Validation("unknown sex %q", p.Sex)
	}
	if p.BirthDate != nil && p.BirthDate.After(time.Now()) {
		return apperr.Validation("birth_date cannot be in the future")
	}
	return nil
}
