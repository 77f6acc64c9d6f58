package staff

import (
	"context"
	"strings"

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

func (s *Service) Create(ctx context.Context, m *Member) error {
	if m.Subject == "" {
		return apperr.Validation("subject is required")
	}
	if m.FirstName == "" || m.LastName == "" {
		return apperr.Validation("first_name and last_name are required")
	}
	if m.Email == "" || !strings.Contains(m.Email, "@") {
		return apperr.Validation("a valid email is required")
	}
	if !m.Role.Valid() {
		return apperr.Validation("unknown role %q", m.Role)
	}
	m.Active = true
	return s.repo.Create(ctx, m)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Member, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Member, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Update(ctx context.Context, m *Member) error {
	if m.FirstName == "" || m.LastName == "" {
		return apperr.Validation("first_name and last_name are required")
	}
	existing, err := s.repo.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	// Role changes go through ChangeRole; plain updates cannot touch it.
	m.Role = existing.Role
	m.Active = existing.Active
	m.Subject = existing.Subject
	return s.repo.Update(ctx, m)
}

// ChangeRole reassigns a member's role. Two hard rules: nobody changes
// their own role, and the tenant-owner role is never a source or target of
// a change. Ownership transfer is a support operation, not an API call.
func (s *Service) ChangeRole(ctx context.Context, caller *auth.Caller, targetID uuid.UUID, newRole auth.Role) (*Member, error) {
	if !newRole.Valid() {
		return nil, apperr.Validation("unknown role %q", newRole)
	}
	if newRole == auth.RoleTenantOwner {
		return nil, apperr.Validation("the tenant owner role cannot be assigned")
	}
	if caller != nil && caller.PrincipalID == targetID.String() {
		return nil, apperr.Validation("cannot change your own role")
	}

	m, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if m.Role == auth.RoleTenantOwner {
		return nil, apperr.Validation("the tenant owner's role cannot be changed")
	}

	prev := m.Role
	m.Role = newRole
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("member_id", m.ID.String()).
		Str("role", string(newRole)).
		Str("prev_role", string(prev)).
		Msg("staff role changed")

	return m, nil
}

// Deactivate disables a member's access. The record stays so recorded
// observations remain attributable. The tenant owner cannot be deactivated.
func (s *Service) Deactivate(ctx context.Context, caller *auth.Caller, id uuid.UUID) error {
	if caller != nil && caller.PrincipalID == id.String() {
		return apperr.Validation("cannot deactivate your own account")
	}

	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m.Role == auth.RoleTenantOwner {
		return apperr.Validation("the tenant owner cannot be deactivated")
	}
	if !m.Active {
		return nil
	}
	m.Active = false
	if err := s.repo.Update(ctx, m); err != nil {
		return err
	}

	s.logger.Info().Str("member_id", m.ID.String()).Msg("staff member deactivated")
	return nil
}

// Directory adapts the staff repository to the auth resolver's view of
// accounts.
type Directory struct {
	repo Repository
}

func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

func (d *Directory) FindBySubject(ctx context.Context, subject string) (*auth.Principal, error) {
	m, err := d.repo.GetBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	return &auth.Principal{
		ID:       m.ID.String(),
		TenantID: m.TenantID,
		Role:     m.Role,
		Active:   m.Active,
	}, nil
}
