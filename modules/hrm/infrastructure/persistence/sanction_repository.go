package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/sanction"
)

const (
	sanctionColumns = `id, tenant_id, employee_id, reason,
		has_warning, warning_completed, has_fine, fine_amount, fine_completed,
		has_measure, COALESCE(measure_text, ''), measure_completed,
		status, issued_by, expires_at, revoked_at, revoked_by, created_at, updated_at`

	insertSanctionQuery = `INSERT INTO hrm_sanctions (
		id, tenant_id, employee_id, reason,
		has_warning, warning_completed, has_fine, fine_amount, fine_completed,
		has_measure, measure_text, measure_completed,
		status, issued_by, expires_at, revoked_at, revoked_by, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $13, $14, $15, $16, $17, $18, $19)`

	selectSanctionQuery = `SELECT ` + sanctionColumns + ` FROM hrm_sanctions WHERE tenant_id = $1 AND id = $2`

	updateSanctionQuery = `UPDATE hrm_sanctions SET
		warning_completed = $3, fine_completed = $4, measure_completed = $5,
		status = $6, revoked_at = $7, revoked_by = $8, updated_at = $9
		WHERE tenant_id = $1 AND id = $2`
)

type PgSanctionRepository struct{}

func NewSanctionRepository() sanction.Repository {
	return &PgSanctionRepository{}
}

func (r *PgSanctionRepository) GetByID(ctx context.Context, id uuid.UUID) (sanction.Sanction, error) {
	return r.getOne(ctx, selectSanctionQuery, id)
}

func (r *PgSanctionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (sanction.Sanction, error) {
	return r.getOne(ctx, selectSanctionQuery+` FOR UPDATE`, id)
}

func (r *PgSanctionRepository) getOne(ctx context.Context, query string, id uuid.UUID) (sanction.Sanction, error) {
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return sanction.Sanction{}, err
	}
	rows, err := tx.Query(ctx, query, tenantID, id)
	if err != nil {
		return sanction.Sanction{}, gerrors.Wrap(err, "get sanction")
	}
	s, err := pgx.CollectExactlyOneRow(rows, scanSanction)
	if errors.Is(err, pgx.ErrNoRows) {
		return sanction.Sanction{}, sanction.ErrNotFound
	}
	return s, err
}

func (r *PgSanctionRepository) List(ctx context.Context, params *sanction.FindParams) ([]sanction.Sanction, error) {
	if params == nil {
		params = &sanction.FindParams{}
	}
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return nil, err
	}
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if params.EmployeeID != uuid.Nil {
		args = append(args, params.EmployeeID)
		where = append(where, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	if params.Status != "" {
		args = append(args, string(params.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	limit, offset := page(params.Limit, params.Offset)
	args = append(args, limit, offset)
	rows, err := tx.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM hrm_sanctions WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
			sanctionColumns, strings.Join(where, " AND "), len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, gerrors.Wrap(err, "list sanctions")
	}
	return pgx.CollectRows(rows, scanSanction)
}

func (r *PgSanctionRepository) Create(ctx context.Context, s sanction.Sanction) error {
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return err
	}
	st := s.State()
	_, err = tx.Exec(ctx, insertSanctionQuery,
		st.ID, tenantID, st.EmployeeID, st.Reason,
		st.HasWarning, st.WarningCompleted, st.HasFine, st.FineAmount, st.FineCompleted,
		st.HasMeasure, st.MeasureText, st.MeasureCompleted,
		string(st.Status), st.IssuedBy, st.ExpiresAt, st.RevokedAt, st.RevokedBy, st.CreatedAt, st.UpdatedAt,
	)
	return gerrors.Wrap(err, "create sanction")
}

func (r *PgSanctionRepository) Update(ctx context.Context, s sanction.Sanction) error {
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return err
	}
	st := s.State()
	tag, err := tx.Exec(ctx, updateSanctionQuery,
		tenantID, st.ID, st.WarningCompleted, st.FineCompleted, st.MeasureCompleted,
		string(st.Status), st.RevokedAt, st.RevokedBy, st.UpdatedAt,
	)
	if err != nil {
		return gerrors.Wrap(err, "update sanction")
	}
	if tag.RowsAffected() == 0 {
		return sanction.ErrNotFound
	}
	return nil
}

func scanSanction(row pgx.CollectableRow) (sanction.Sanction, error) {
	var st sanction.State
	var status string
	err := row.Scan(&st.ID, &st.TenantID, &st.EmployeeID, &st.Reason,
		&st.HasWarning, &st.WarningCompleted, &st.HasFine, &st.FineAmount, &st.FineCompleted,
		&st.HasMeasure, &st.MeasureText, &st.MeasureCompleted,
		&status, &st.IssuedBy, &st.ExpiresAt, &st.RevokedAt, &st.RevokedBy, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return sanction.Sanction{}, err
	}
	st.Status = sanction.Status(status)
	return sanction.Hydrate(st), nil
}
