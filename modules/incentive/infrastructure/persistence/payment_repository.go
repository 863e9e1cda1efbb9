package persistence

import (
	"context"
	"fmt"
	"strings"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/precinct/modules/incentive/domain/payment"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/repo"
)

const (
	paymentColumns = `id, tenant_id, employee_id, event_type, subject_label, source_record_id, amount, week, created_at`

	insertPaymentQuery = `INSERT INTO incentive_payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tenant_id, event_type, source_record_id) DO NOTHING`
)

type PgPaymentRepository struct{}

func NewPaymentRepository() payment.Repository {
	return &PgPaymentRepository{}
}

func (r *PgPaymentRepository) Create(ctx context.Context, p payment.Payment) (bool, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return false, err
	}
	tag, err := tx.Exec(ctx, insertPaymentQuery,
		p.ID, tenantID, p.EmployeeID, p.EventType, p.SubjectLabel, p.SourceRecordID, p.Amount, p.Week, p.CreatedAt)
	if err != nil {
		return false, gerrors.Wrap(err, "insert incentive payment")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgPaymentRepository) List(ctx context.Context, params *payment.FindParams) ([]payment.Payment, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = &payment.FindParams{}
	}
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if params.EmployeeID != uuid.Nil {
		args = append(args, params.EmployeeID)
		where = append(where, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	if params.Week != "" {
		args = append(args, params.Week)
		where = append(where, fmt.Sprintf("week = $%d", len(args)))
	}
	query := `SELECT ` + paymentColumns + ` FROM incentive_payments WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC`
	if params.Limit > 0 {
		args = append(args, params.Limit, params.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	return queryPayments(ctx, tx, query, args...)
}

func (r *PgPaymentRepository) ByWeek(ctx context.Context, week string) ([]payment.Payment, error) {
	return r.List(ctx, &payment.FindParams{Week: week})
}

func queryPayments(ctx context.Context, tx repo.Tx, query string, args ...any) ([]payment.Payment, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, gerrors.Wrap(err, "query incentive payments")
	}
	defer rows.Close()

	var out []payment.Payment
	for rows.Next() {
		var p payment.Payment
		if err := rows.Scan(&p.ID, &p.TenantID, &p.EmployeeID, &p.EventType, &p.SubjectLabel,
			&p.SourceRecordID, &p.Amount, &p.Week, &p.CreatedAt); err != nil {
			return nil, gerrors.Wrap(err, "scan incentive payment")
		}
		out = append(out, p)
	}
	return out, gerrors.Wrap(rows.Err(), "iterate incentive payments")
}
