package tenant

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/vetpms/vetpms/internal/platform/db"
	"github.com/vetpms/vetpms/pkg/apperr"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

type Service struct {
	repo          Repository
	pool          *pgxpool.Pool
	migrationsDir string
	logger        zerolog.Logger

	// provision is swappable in tests
	provision func(ctx context.Context, pool *pgxpool.Pool, tenantID, migrationsDir string) error
}

func NewService(repo Repository, pool *pgxpool.Pool, migrationsDir string, logger zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		pool:          pool,
		migrationsDir: migrationsDir,
		logger:        logger,
		provision:     db.CreateTenantSchema,
	}
}

// Create onboards a practice: it stores the tenant record and provisions the
// tenant schema with all migrations applied. New practices start on a TRIAL
// subscription.
func (s *Service) Create(ctx context.Context, t *Tenant) error {
	if t.Name == "" {
		return apperr.Validation("name is required")
	}
	if !slugPattern.MatchString(t.Slug) {
		return apperr.Validation("slug must match [a-z0-9_]+")
	}
	if t.SubscriptionTier == "" {
		t.SubscriptionTier = TierTrial
	}
	if !validTiers[t.SubscriptionTier] {
		return apperr.Validation("unknown subscription tier %q", t.SubscriptionTier)
	}
	t.SubscriptionStatus = StatusTrial
	t.Active = true

	if err := s.repo.Create(ctx, t); err != nil {
		return err
	}

	if err := s.provision(ctx, s.pool, t.Slug, s.migrationsDir); err != nil {
		// Roll the registration back so the slug is free for a retry; a
		// registered tenant without a schema would be unusable.
		if delErr := s.repo.Delete(ctx, t.ID); delErr != nil {
			s.logger.Error().
				Err(delErr).
				Str("tenant_id", t.ID.String()).
				Str("slug", t.Slug).
				Msg("tenant rollback failed after provisioning error")
		}
		return apperr.Wrap(apperr.KindInternal, err, "provision tenant schema")
	}

	s.logger.Info().
		Str("tenant_id", t.ID.String()).
		Str("slug", t.Slug).
		Str("tier", string(t.SubscriptionTier)).
		Msg("tenant created")

	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Tenant, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// ApplyBillingEvent records a subscription change coming from the billing
// system: upgrades, downgrades, expiry, cancellation. Tier and status are
// validated against the closed enums; quota enforcement picks the change up
// on the next activation attempt without touching existing ACTIVE plans.
func (s *Service) ApplyBillingEvent(ctx context.Context, id uuid.UUID, tier SubscriptionTier, status SubscriptionStatus) (*Tenant, error) {
	if !validTiers[tier] {
		return nil, apperr.Validation("unknown subscription tier %q", tier)
	}
	if !validStatuses[status] {
		return nil, apperr.Validation("unknown subscription status %q", status)
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	prevTier, prevStatus := t.SubscriptionTier, t.SubscriptionStatus
	t.SubscriptionTier = tier
	t.SubscriptionStatus = status
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("tenant_id", t.ID.String()).
		Str("tier", string(tier)).
		Str("status", string(status)).
		Str("prev_tier", string(prevTier)).
		Str("prev_status", string(prevStatus)).
		Msg("subscription changed")

	return t, nil
}

// Deactivate turns a practice off without deleting it. Data stays in the
// tenant schema; auth rejects its staff because the tenant is inactive.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !t.Active {
		return nil
	}
	t.Active = false
	if err := s.repo.Update(ctx, t); err != nil {
		return err
	}

	s.logger.Info().Str("tenant_id", t.ID.String()).Msg("tenant deactivated")
	return nil
}
