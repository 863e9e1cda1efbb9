package persistence

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/precinct/modules/finance/domain/aggregates/treasury"
	"github.com/iota-uz/precinct/pkg/memstore"
)

type ledgerRow struct {
	seq int64
	tx  treasury.Transaction
}

// MemoryTreasuryRepository relies on the memory transactor serializing
// units of work for the read-check-write in Apply.
type MemoryTreasuryRepository struct {
	balances *memstore.Table[struct{}, treasury.Balances]
	ledger   *memstore.Table[uuid.UUID, ledgerRow]
	seq      atomic.Int64
}

func NewMemoryTreasuryRepository() *MemoryTreasuryRepository {
	return &MemoryTreasuryRepository{
		balances: memstore.NewTable[struct{}, treasury.Balances](),
		ledger:   memstore.NewTable[uuid.UUID, ledgerRow](),
	}
}

func (r *MemoryTreasuryRepository) Balances(ctx context.Context) (treasury.Balances, error) {
	b, _, err := r.balances.Get(ctx, struct{}{})
	return b, err
}

func (r *MemoryTreasuryRepository) Apply(ctx context.Context, t treasury.Transaction) (treasury.Transaction, error) {
	b, err := r.Balances(ctx)
	if err != nil {
		return treasury.Transaction{}, err
	}
	next, err := b.Apply(t)
	if err != nil {
		return treasury.Transaction{}, err
	}
	if err := r.balances.Put(ctx, struct{}{}, next); err != nil {
		return treasury.Transaction{}, err
	}
	t.BalanceAfter = next.Of(t.Pool)
	return t, r.ledger.Put(ctx, t.ID, ledgerRow{seq: r.seq.Add(1), tx: t})
}

func (r *MemoryTreasuryRepository) Sums(ctx context.Context) (map[treasury.Pool]decimal.Decimal, error) {
	rows, err := r.ledger.Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := map[treasury.Pool]decimal.Decimal{}
	for _, row := range rows {
		out[row.tx.Pool] = out[row.tx.Pool].Add(row.tx.Signed())
	}
	return out, nil
}

func (r *MemoryTreasuryRepository) Transactions(ctx context.Context, params *treasury.FindParams) ([]treasury.Transaction, int64, error) {
	if params == nil {
		params = &treasury.FindParams{}
	}
	rows, err := r.ledger.Find(ctx, func(row ledgerRow) bool { return params.Matches(row.tx) })
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	out := make([]treasury.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.tx)
	}
	return memstore.Page(out, params.Limit, params.Offset), int64(len(out)), nil
}
