package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/precinct/modules/academy/domain/uprank"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/repo"
)

const (
	uprankColumns = `id, tenant_id, employee_id, current_level, target_level, justification, achievements,
		status, rejection_reason, requested_by, processed_by, processed_at, created_at`

	// Backs the one-pending-request rule.
	pendingUprankIndex = "academy_uprank_requests_one_pending"
)

type PgUprankRepository struct{}

func NewUprankRepository() uprank.Repository {
	return &PgUprankRepository{}
}

func (r *PgUprankRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (uprank.Request, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return uprank.Request{}, err
	}
	rows, err := tx.Query(ctx, `SELECT `+uprankColumns+` FROM academy_uprank_requests
		WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)
	if err != nil {
		return uprank.Request{}, gerrors.Wrap(err, "get uprank request")
	}
	req, err := pgx.CollectExactlyOneRow(rows, scanUprank)
	if errors.Is(err, pgx.ErrNoRows) {
		return uprank.Request{}, uprank.ErrNotFound
	}
	return req, err
}

func (r *PgUprankRepository) HasPending(ctx context.Context, employeeID uuid.UUID) (bool, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM academy_uprank_requests
		WHERE tenant_id = $1 AND employee_id = $2 AND status = 'PENDING')`, tenantID, employeeID).Scan(&exists)
	return exists, gerrors.Wrap(err, "check pending uprank")
}

func (r *PgUprankRepository) List(ctx context.Context, params *uprank.FindParams) ([]uprank.Request, error) {
	if params == nil {
		params = &uprank.FindParams{}
	}
	tx, tenantID, err := composables.UseTenantTx(ctx)
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
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, max(params.Offset, 0))
	rows, err := tx.Query(ctx, fmt.Sprintf(`SELECT %s FROM academy_uprank_requests WHERE %s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, uprankColumns, strings.Join(where, " AND "), len(args)-1, len(args)), args...)
	if err != nil {
		return nil, gerrors.Wrap(err, "list uprank requests")
	}
	return pgx.CollectRows(rows, scanUprank)
}

func (r *PgUprankRepository) Create(ctx context.Context, req uprank.Request) error {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO academy_uprank_requests (`+uprankColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		req.ID, tenantID, req.EmployeeID, req.CurrentLevel, req.TargetLevel, req.Justification, req.Achievements,
		string(req.Status), req.RejectionReason, nullUUID(req.RequestedBy), nullUUID(req.ProcessedBy), req.ProcessedAt, req.CreatedAt)
	if repo.IsUniqueViolation(err, pendingUprankIndex) {
		return uprank.ErrDuplicateRequest
	}
	return gerrors.Wrap(err, "create uprank request")
}

func (r *PgUprankRepository) Update(ctx context.Context, req uprank.Request) error {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `UPDATE academy_uprank_requests
		SET status = $3, rejection_reason = $4, processed_by = $5, processed_at = $6
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, req.ID, string(req.Status), req.RejectionReason, nullUUID(req.ProcessedBy), req.ProcessedAt)
	if err != nil {
		return gerrors.Wrap(err, "update uprank request")
	}
	if tag.RowsAffected() == 0 {
		return uprank.ErrNotFound
	}
	return nil
}

func scanUprank(row pgx.CollectableRow) (uprank.Request, error) {
	var (
		req                      uprank.Request
		status                   string
		requestedBy, processedBy *uuid.UUID
	)
	err := row.Scan(&req.ID, &req.TenantID, &req.EmployeeID, &req.CurrentLevel, &req.TargetLevel, &req.Justification,
		&req.Achievements, &status, &req.RejectionReason, &requestedBy, &processedBy, &req.ProcessedAt, &req.CreatedAt)
	if err != nil {
		return uprank.Request{}, err
	}
	req.Status = uprank.Status(status)
	if requestedBy != nil {
		req.RequestedBy = *requestedBy
	}
	if processedBy != nil {
		req.ProcessedBy = *processedBy
	}
	return req, nil
}
