// Package query holds reporting projections over the treasury ledger.
package query

import (
	"context"
	"math"
	"sort"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/precinct/modules/finance/domain/aggregates/treasury"
)

// SummaryRow totals one pool's movements of one kind within a month.
type SummaryRow struct {
	Month string          `db:"month" json:"month"`
	Pool  string          `db:"pool" json:"pool"`
	Kind  string          `db:"kind" json:"kind"`
	Count int             `db:"movements" json:"count"`
	Total decimal.Decimal `db:"total" json:"total"`
}

type SummaryReader interface {
	// MonthlySummary covers [from, to), newest month first.
	MonthlySummary(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]SummaryRow, error)
}

const summaryQuery = `SELECT to_char(date_trunc('month', created_at), 'YYYY-MM') AS month,
		pool, kind, COUNT(*) AS movements, SUM(amount) AS total
	FROM treasury_transactions
	WHERE tenant_id = ? AND created_at >= ? AND created_at < ?
	GROUP BY 1, pool, kind
	ORDER BY 1 DESC, pool, kind`

type PgSummaryQuery struct {
	db *sqlx.DB
}

func NewPgSummaryQuery(db *sqlx.DB) *PgSummaryQuery {
	return &PgSummaryQuery{db: db}
}

func (q *PgSummaryQuery) MonthlySummary(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]SummaryRow, error) {
	rows := []SummaryRow{}
	if err := q.db.SelectContext(ctx, &rows, q.db.Rebind(summaryQuery), tenantID, from, to); err != nil {
		return nil, gerrors.Wrap(err, "query treasury summary")
	}
	return rows, nil
}

// RepositorySummaryQuery aggregates from the repository ledger. The
// in-memory backend uses it.
type RepositorySummaryQuery struct {
	repo treasury.Repository
}

func NewRepositorySummaryQuery(repo treasury.Repository) *RepositorySummaryQuery {
	return &RepositorySummaryQuery{repo: repo}
}

func (q *RepositorySummaryQuery) MonthlySummary(ctx context.Context, _ uuid.UUID, from, to time.Time) ([]SummaryRow, error) {
	all, _, err := q.repo.Transactions(ctx, &treasury.FindParams{From: &from, To: &to, Limit: math.MaxInt32})
	if err != nil {
		return nil, err
	}
	type key struct{ month, pool, kind string }
	acc := map[key]*SummaryRow{}
	for _, t := range all {
		k := key{t.CreatedAt.UTC().Format("2006-01"), string(t.Pool), string(t.Kind)}
		row, ok := acc[k]
		if !ok {
			row = &SummaryRow{Month: k.month, Pool: k.pool, Kind: k.kind}
			acc[k] = row
		}
		row.Count++
		row.Total = row.Total.Add(t.Amount)
	}
	out := make([]SummaryRow, 0, len(acc))
	for _, row := range acc {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month > out[j].Month
		}
		if out[i].Pool != out[j].Pool {
			return out[i].Pool < out[j].Pool
		}
		return out[i].Kind < out[j].Kind
	})
	return out, nil
}
