package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetpms/vetpms/internal/platform/db"
	"github.com/vetpms/vetpms/pkg/apperr"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const tenantCols = `id, slug, name, subscription_tier, subscription_status, active, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, t *Tenant) error {
	t.ID = uuid.New()

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO shared.tenant (id, slug, name, subscription_tier, subscription_status, active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Slug, t.Name, t.SubscriptionTier, t.SubscriptionStatus, t.Active)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("tenant slug %q already exists", t.Slug)
		}
		return fmt.Errorf("tenant create: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+tenantCols+` FROM shared.tenant WHERE id = $1`, id)
	return scanTenant(row)
}

func (r *repoPG) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+tenantCols+` FROM shared.tenant WHERE slug = $1`, slug)
	return scanTenant(row)
}

func (r *repoPG) Update(ctx context.Context, t *Tenant) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE shared.tenant
		SET name = $2, subscription_tier = $3, subscription_status = $4, active = $5, updated_at = now()
		WHERE id = $1`,
		t.ID, t.Name, t.SubscriptionTier, t.SubscriptionStatus, t.Active)
	if err != nil {
		return fmt.Errorf("tenant update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("tenant not found")
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM shared.tenant WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("tenant delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("tenant not found")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Tenant, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM shared.tenant`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("tenant count: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+tenantCols+` FROM shared.tenant ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("tenant list: %w", err)
	}
	defer rows.Close()

	var tenants []*Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, 0, err
		}
		tenants = append(tenants, t)
	}
	return tenants, total, rows.Err()
}

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.SubscriptionTier, &t.SubscriptionStatus,
		&t.Active, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("tenant not found")
	}
	if err != nil {
		return nil, fmt.Errorf("tenant scan: %w", err)
	}
	return &t, nil
}
