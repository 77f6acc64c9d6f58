package staff

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

const memberCols = `id, tenant_id, subject, email, first_name, last_name, role, active, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, m *Member) error {
	m.ID = uuid.New()
	m.TenantID = db.TenantFromContext(ctx)

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO staff_member (id, tenant_id, subject, email, first_name, last_name, role, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.TenantID, m.Subject, m.Email, m.FirstName, m.LastName, m.Role, m.Active)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("staff member with that subject already exists")
		}
		return fmt.Errorf("staff create: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Member, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+memberCols+` FROM staff_member WHERE id = $1`, id)
	return scanMember(row)
}

func (r *repoPG) GetBySubject(ctx context.Context, subject string) (*Member, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+memberCols+` FROM staff_member WHERE subject = $1`, subject)
	return scanMember(row)
}

func (r *repoPG) Update(ctx context.Context, m *Member) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE staff_member
		SET email = $2, first_name = $3, last_name = $4, role = $5, active = $6, updated_at = now()
		WHERE id = $1`,
		m.ID, m.Email, m.FirstName, m.LastName, m.Role, m.Active)
	if err != nil {
		return fmt.Errorf("staff update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("staff member not found")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Member, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM staff_member`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("staff count: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+memberCols+` FROM staff_member ORDER BY last_name, first_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("staff list: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		members = append(members, m)
	}
	return members, total, rows.Err()
}

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.TenantID, &m.Subject, &m.Email, &m.FirstName, &m.LastName,
		&m.Role, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("staff member not found")
	}
	if err != nil {
		return nil, fmt.Errorf("staff scan: %w", err)
	}
	return &m, nil
}
