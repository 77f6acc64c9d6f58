package observation

import (
	"context"
	"encoding/json"
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

func NewRepo(pool *pgxpool.Pool) *repoPG {
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

const templateCols = `id, tenant_id, plan_id, name, data_type, unit, min_value, max_value,
	options, created_at, updated_at`

func (r *repoPG) CreateTemplate(ctx context.Context, t *Template) error {
	t.ID = uuid.New()
	t.TenantID = db.TenantFromContext(ctx)

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO observation_template (id, tenant_id, plan_id, name, data_type, unit, min_value, max_value, options)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		t.ID, t.TenantID, t.PlanID, t.Name, t.DataType, t.Unit, t.MinValue, t.MaxValue, t.Options)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503":
				return apperr.NotFound("monitoring plan not found")
			case "23505":
				return apperr.Conflict("a note template already exists for this practice")
			}
		}
		return fmt.Errorf("template create: %w", err)
	}
	return nil
}

func (r *repoPG) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+templateCols+` FROM observation_template WHERE id = $1`, id)
	return scanTemplate(row)
}

func (r *repoPG) UpdateTemplate(ctx context.Context, t *Template) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE observation_template
		SET name = $2, unit = $3, min_value = $4, max_value = $5, options = $6, updated_at = now()
		WHERE id = $1`,
		t.ID, t.Name, t.Unit, t.MinValue, t.MaxValue, t.Options)
	if err != nil {
		return fmt.Errorf("template update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("observation template not found")
	}
	return nil
}

func (r *repoPG) ListTemplates(ctx context.Context, limit, offset int) ([]*Template, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM observation_template`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("template count: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+templateCols+` FROM observation_template ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("template list: %w", err)
	}
	defer rows.Close()

	templates, err := collectTemplates(rows)
	return templates, total, err
}

func (r *repoPG) ListTemplatesByPlan(ctx context.Context, planID uuid.UUID) ([]*Template, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+templateCols+` FROM observation_template WHERE plan_id = $1 ORDER BY created_at`, planID)
	if err != nil {
		return nil, fmt.Errorf("template list by plan: %w", err)
	}
	defer rows.Close()

	return collectTemplates(rows)
}

func (r *repoPG) NoteTemplates(ctx context.Context) ([]*Template, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+templateCols+` FROM observation_template WHERE data_type = $1 ORDER BY created_at`, TypeNote)
	if err != nil {
		return nil, fmt.Errorf("note template list: %w", err)
	}
	defer rows.Close()

	return collectTemplates(rows)
}

// InsertNoteTemplate relies on the partial unique index on
// (tenant_id, data_type) WHERE data_type = 'NOTE'. Under a concurrent
// bootstrap exactly one insert lands; the other is silently skipped and the
// caller re-reads the surviving row.
func (r *repoPG) InsertNoteTemplate(ctx context.Context, t *Template) error {
	t.ID = uuid.New()
	t.TenantID = db.TenantFromContext(ctx)

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO observation_template (id, tenant_id, plan_id, name, data_type)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT DO NOTHING`,
		t.ID, t.TenantID, t.PlanID, t.Name, TypeNote)
	if err != nil {
		return fmt.Errorf("note template insert: %w", err)
	}
	return nil
}

func (r *repoPG) FirstPlanID(ctx context.Context) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id FROM monitoring_plan ORDER BY created_at LIMIT 1`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, apperr.NotFound("no monitoring plan exists to attach the note template to")
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("first plan lookup: %w", err)
	}
	return id, nil
}

const recordCols = `id, tenant_id, template_id, value, note, recorded_by, recorded_at, created_at`

func (r *repoPG) CreateRecord(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	rec.TenantID = db.TenantFromContext(ctx)

	raw, err := json.Marshal(rec.Value)
	if err != nil {
		return apperr.Validation("value is not serializable")
	}

	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO observation_record (id, tenant_id, template_id, value, note, recorded_by, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rec.ID, rec.TenantID, rec.TemplateID, raw, rec.Note, rec.RecordedBy, rec.RecordedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperr.NotFound("observation template not found")
		}
		return fmt.Errorf("record create: %w", err)
	}
	return nil
}

func (r *repoPG) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM observation_record WHERE id = $1`, id)
	return scanRecord(row)
}

func (r *repoPG) ListRecords(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM observation_record`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("record count: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recordCols+` FROM observation_record ORDER BY recorded_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("record list: %w", err)
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	return records, total, err
}

func (r *repoPG) ListRecordsByTemplate(ctx context.Context, templateID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT count(*) FROM observation_record WHERE template_id = $1`, templateID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("record count by template: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recordCols+` FROM observation_record WHERE template_id = $1 ORDER BY recorded_at DESC LIMIT $2 OFFSET $3`,
		templateID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("record list by template: %w", err)
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	return records, total, err
}

func collectTemplates(rows pgx.Rows) ([]*Template, error) {
	var templates []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.TenantID, &t.PlanID, &t.Name, &t.DataType, &t.Unit,
		&t.MinValue, &t.MaxValue, &t.Options, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("observation template not found")
	}
	if err != nil {
		return nil, fmt.Errorf("template scan: %w", err)
	}
	return &t, nil
}

func collectRecords(rows pgx.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var raw []byte
	err := row.Scan(&rec.ID, &rec.TenantID, &rec.TemplateID, &raw, &rec.Note,
		&rec.RecordedBy, &rec.RecordedAt, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("observation record not found")
	}
	if err != nil {
		return nil, fmt.Errorf("record scan: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec.Value); err != nil {
			return nil, fmt.Errorf("record value decode: %w", err)
		}
	}
	return &rec, nil
}
