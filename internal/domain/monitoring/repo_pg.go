package monitoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetpms/vetpms/internal/domain/tenant"
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

const planCols = `id, tenant_id, patient_id, title, description, status, created_by,
	activated_at, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Plan) error {
	p.ID = uuid.New()
	p.TenantID = db.TenantFromContext(ctx)

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO monitoring_plan (id, tenant_id, patient_id, title, description, status, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.TenantID, p.PatientID, p.Title, p.Description, p.Status, p.CreatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperr.NotFound("patient not found")
		}
		return fmt.Errorf("plan create: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+planCols+` FROM monitoring_plan WHERE id = $1`, id)
	return scanPlan(row)
}

func (r *repoPG) Update(ctx context.Context, p *Plan) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE monitoring_plan
		SET title = $2, description = $3, status = $4, activated_at = $5, updated_at = now()
		WHERE id = $1`,
		p.ID, p.Title, p.Description, p.Status, p.ActivatedAt)
	if err != nil {
		return fmt.Errorf("plan update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("monitoring plan not found")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Plan, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM monitoring_plan`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("plan count: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+planCols+` FROM monitoring_plan ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("plan list: %w", err)
	}
	defer rows.Close()

	return collectPlans(rows, total)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Plan, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT count(*) FROM monitoring_plan WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("plan count by patient: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+planCols+` FROM monitoring_plan WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("plan list by patient: %w", err)
	}
	defer rows.Close()

	return collectPlans(rows, total)
}

func (r *repoPG) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT count(*) FROM monitoring_plan WHERE status = $1`, StatusActive).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("active plan count: %w", err)
	}
	return n, nil
}

// Activate performs the quota-checked DRAFT/PAUSED -> ACTIVE transition.
// The tenant row lock serializes concurrent activations for one practice;
// the count and the cap check run inside the same transaction, so the cap
// cannot be overshot by a race.
func (r *repoPG) Activate(ctx context.Context, id uuid.UUID) (*Plan, error) {
	txCtx, tx, err := db.WithTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("plan activate: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	slug := db.TenantFromContext(ctx)

	var t tenant.Tenant
	err = tx.QueryRow(txCtx, `
		SELECT subscription_tier, subscription_status, active
		FROM shared.tenant WHERE slug = $1 FOR UPDATE`, slug).
		Scan(&t.SubscriptionTier, &t.SubscriptionStatus, &t.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("tenant not found")
	}
	if err != nil {
		return nil, fmt.Errorf("plan activate: lock tenant: %w", err)
	}
	if !t.Active {
		return nil, apperr.QuotaExceeded("practice is deactivated")
	}

	active, err := r.CountActive(txCtx)
	if err != nil {
		return nil, err
	}

	if !tenant.CanActivate(&t, active) {
		q, ok := tenant.QuotaFor(&t)
		if ok && q.Cap != tenant.Unlimited && active >= q.Cap {
			return nil, apperr.QuotaExceeded(
				"active plan limit reached for %s tier (%d plans)", t.SubscriptionTier, q.Cap)
		}
		return nil, apperr.QuotaExceeded(
			"subscription status %s does not allow plan activation", t.SubscriptionStatus)
	}

	row := tx.QueryRow(txCtx, `
		UPDATE monitoring_plan
		SET status = $2, activated_at = now(), updated_at = now()
		WHERE id = $1
		RETURNING `+planCols, id, StatusActive)
	p, err := scanPlan(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("plan activate: commit: %w", err)
	}
	return p, nil
}

func collectPlans(rows pgx.Rows, total int) ([]*Plan, int, error) {
	var plans []*Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, err
		}
		plans = append(plans, p)
	}
	return plans, total, rows.Err()
}

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.TenantID, &p.PatientID, &p.Title, &p.Description, &p.Status,
		&p.CreatedBy, &p.ActivatedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("monitoring plan not found")
	}
	if err != nil {
		return nil, fmt.Errorf("plan scan: %w", err)
	}
	return &p, nil
}
