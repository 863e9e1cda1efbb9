package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/precinct/modules/finance/domain/aggregates/treasury"
	"github.com/iota-uz/precinct/pkg/composables"
)

const (
	transactionColumns = `id, tenant_id, pool, kind, amount, reason, actor_id, balance_after, created_at`

	ensureBalancesQuery = `INSERT INTO treasury_balances (tenant_id) VALUES ($1) ON CONFLICT (tenant_id) DO NOTHING`

	selectBalancesQuery = `SELECT regular, untracked, updated_at FROM treasury_balances WHERE tenant_id = $1`

	insertTransactionQuery = `INSERT INTO treasury_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	sumsQuery = `SELECT pool, COALESCE(SUM(CASE WHEN kind = 'DEPOSIT' THEN amount ELSE -amount END), 0)
		FROM treasury_transactions WHERE tenant_id = $1 GROUP BY pool`
)

type PgTreasuryRepository struct{}

func NewTreasuryRepository() treasury.Repository {
	return &PgTreasuryRepository{}
}

func (r *PgTreasuryRepository) Balances(ctx context.Context) (treasury.Balances, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return treasury.Balances{}, err
	}
	var b treasury.Balances
	err = tx.QueryRow(ctx, selectBalancesQuery, tenantID).Scan(&b.Regular, &b.Untracked, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return treasury.Balances{}, nil
	}
	if err != nil {
		return treasury.Balances{}, gerrors.Wrap(err, "select treasury balances")
	}
	return b, nil
}

// poolColumn maps a pool to its balance column. Only validated pools reach
// the query text.
func poolColumn(p treasury.Pool) (string, error) {
	switch p {
	case treasury.PoolRegular:
		return "regular", nil
	case treasury.PoolUntracked:
		return "untracked", nil
	}
	return "", gerrors.Errorf("unknown pool %q", p)
}

// Apply moves the balance with a single conditional UPDATE so concurrent
// withdrawals cannot overdraw the pool.
func (r *PgTreasuryRepository) Apply(ctx context.Context, t treasury.Transaction) (treasury.Transaction, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return treasury.Transaction{}, err
	}
	col, err := poolColumn(t.Pool)
	if err != nil {
		return treasury.Transaction{}, err
	}
	if _, err := tx.Exec(ctx, ensureBalancesQuery, tenantID); err != nil {
		return treasury.Transaction{}, gerrors.Wrap(err, "ensure treasury balances")
	}

	var query string
	if t.Kind == treasury.KindWithdrawal {
		query = fmt.Sprintf(`UPDATE treasury_balances SET %[1]s = %[1]s - $2, updated_at = $3
			WHERE tenant_id = $1 AND %[1]s >= $2 RETURNING %[1]s`, col)
	} else {
		query = fmt.Sprintf(`UPDATE treasury_balances SET %[1]s = %[1]s + $2, updated_at = $3
			WHERE tenant_id = $1 RETURNING %[1]s`, col)
	}
	var after decimal.Decimal
	err = tx.QueryRow(ctx, query, tenantID, t.Amount, t.CreatedAt).Scan(&after)
	if errors.Is(err, pgx.ErrNoRows) {
		return treasury.Transaction{}, treasury.ErrInsufficientFunds.WithDetails(map[string]any{
			"pool":      string(t.Pool),
			"requested": t.Amount.StringFixed(2),
		})
	}
	if err != nil {
		return treasury.Transaction{}, gerrors.Wrap(err, "update treasury balance")
	}

	t.TenantID = tenantID
	t.BalanceAfter = after
	if _, err := tx.Exec(ctx, insertTransactionQuery,
		t.ID, tenantID, t.Pool, t.Kind, t.Amount, t.Reason, t.ActorID, t.BalanceAfter, t.CreatedAt); err != nil {
		return treasury.Transaction{}, gerrors.Wrap(err, "insert treasury transaction")
	}
	return t, nil
}

func (r *PgTreasuryRepository) Sums(ctx context.Context) (map[treasury.Pool]decimal.Decimal, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, sumsQuery, tenantID)
	if err != nil {
		return nil, gerrors.Wrap(err, "sum treasury ledger")
	}
	defer rows.Close()
	out := map[treasury.Pool]decimal.Decimal{}
	for rows.Next() {
		var (
			pool string
			sum  decimal.Decimal
		)
		if err := rows.Scan(&pool, &sum); err != nil {
			return nil, gerrors.Wrap(err, "scan treasury ledger sum")
		}
		out[treasury.Pool(pool)] = sum
	}
	return out, gerrors.Wrap(rows.Err(), "iterate treasury ledger sums")
}

func (r *PgTreasuryRepository) Transactions(ctx context.Context, params *treasury.FindParams) ([]treasury.Transaction, int64, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return nil, 0, err
	}
	if params == nil {
		params = &treasury.FindParams{}
	}
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if params.Pool != "" {
		add("pool = $%d", params.Pool)
	}
	if params.Kind != "" {
		add("kind = $%d", params.Kind)
	}
	if params.ActorID != uuid.Nil {
		add("actor_id = $%d", params.ActorID)
	}
	if params.From != nil {
		add("created_at >= $%d", *params.From)
	}
	if params.To != nil {
		add("created_at < $%d", *params.To)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM treasury_transactions WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, gerrors.Wrap(err, "count treasury transactions")
	}

	query := `SELECT ` + transactionColumns + ` FROM treasury_transactions WHERE ` + cond +
		` ORDER BY created_at DESC, id DESC`
	if params.Limit > 0 {
		args = append(args, params.Limit, params.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, gerrors.Wrap(err, "query treasury transactions")
	}
	defer rows.Close()
	var out []treasury.Transaction
	for rows.Next() {
		var t treasury.Transaction
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Pool, &t.Kind, &t.Amount, &t.Reason,
			&t.ActorID, &t.BalanceAfter, &t.CreatedAt); err != nil {
			return nil, 0, gerrors.Wrap(err, "scan treasury transaction")
		}
		out = append(out, t)
	}
	return out, total, gerrors.Wrap(rows.Err(), "iterate treasury transactions")
}
