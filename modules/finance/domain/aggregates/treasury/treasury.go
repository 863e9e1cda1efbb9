// Package treasury models the organization's two cash pools and the
// append-only ledger of movements against them.
package treasury

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/precinct/pkg/serrors"
)

type Pool string

const (
	PoolRegular   Pool = "REGULAR"
	PoolUntracked Pool = "UNTRACKED"
)

var Pools = []Pool{PoolRegular, PoolUntracked}

func (p Pool) Valid() bool {
	return p == PoolRegular || p == PoolUntracked
}

type Kind string

const (
	KindDeposit    Kind = "DEPOSIT"
	KindWithdrawal Kind = "WITHDRAWAL"
)

func (k Kind) Valid() bool {
	return k == KindDeposit || k == KindWithdrawal
}

var (
	ErrInvalidAmount     = serrors.NewError("INVALID_AMOUNT", "amount must be greater than zero", "Errors.InvalidAmount")
	ErrInsufficientFunds = serrors.NewError("INSUFFICIENT_FUNDS", "insufficient funds in pool", "Errors.InsufficientFunds")
)

// Balances is the materialized snapshot of both pools. Neither is ever
// negative.
type Balances struct {
	Regular   decimal.Decimal `json:"regular"`
	Untracked decimal.Decimal `json:"untracked"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (b Balances) Of(p Pool) decimal.Decimal {
	if p == PoolUntracked {
		return b.Untracked
	}
	return b.Regular
}

// Apply returns the balances after t. A withdrawal larger than the pool
// leaves b unchanged and fails with ErrInsufficientFunds.
func (b Balances) Apply(t Transaction) (Balances, error) {
	next := b.Of(t.Pool).Add(t.Signed())
	if next.IsNegative() {
		return b, ErrInsufficientFunds.WithDetails(map[string]any{
			"pool":      string(t.Pool),
			"balance":   b.Of(t.Pool).StringFixed(2),
			"requested": t.Amount.StringFixed(2),
		})
	}
	if t.Pool == PoolUntracked {
		b.Untracked = next
	} else {
		b.Regular = next
	}
	b.UpdatedAt = t.CreatedAt
	return b, nil
}

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	TenantID     uuid.UUID       `json:"-"`
	Pool         Pool            `json:"pool"`
	Kind         Kind            `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	Reason       string          `json:"reason"`
	ActorID      uuid.UUID       `json:"actor_id"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	CreatedAt    time.Time       `json:"created_at"`
}

func NewTransaction(tenantID uuid.UUID, pool Pool, kind Kind, amount decimal.Decimal, reason string, actorID uuid.UUID) (Transaction, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return Transaction{}, ErrInvalidAmount
	}
	verrs := serrors.ValidationErrors{}
	if !pool.Valid() {
		verrs["pool"] = "must be REGULAR or UNTRACKED"
	}
	if !kind.Valid() {
		verrs["kind"] = "must be DEPOSIT or WITHDRAWAL"
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		verrs["reason"] = "is required"
	}
	if err := verrs.AsError(); err != nil {
		return Transaction{}, err
	}
	return Transaction{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Pool:      pool,
		Kind:      kind,
		Amount:    amount,
		Reason:    reason,
		ActorID:   actorID,
		CreatedAt: time.Now(),
	}, nil
}

// Signed is the amount with withdrawals negated.
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind == KindWithdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Verification compares one pool's snapshot with its ledger sum.
type Verification struct {
	Pool       Pool            `json:"pool"`
	Balance    decimal.Decimal `json:"balance"`
	LedgerSum  decimal.Decimal `json:"ledger_sum"`
	Consistent bool            `json:"consistent"`
}

func Verify(b Balances, sums map[Pool]decimal.Decimal) []Verification {
	out := make([]Verification, 0, len(Pools))
	for _, p := range Pools {
		sum := sums[p]
		out = append(out, Verification{
			Pool:       p,
			Balance:    b.Of(p),
			LedgerSum:  sum,
			Consistent: b.Of(p).Equal(sum),
		})
	}
	return out
}

type FindParams struct {
	Pool    Pool
	Kind    Kind
	ActorID uuid.UUID
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// Matches applies the filters to t, for backends that filter in memory.
func (p *FindParams) Matches(t Transaction) bool {
	switch {
	case p.Pool != "" && t.Pool != p.Pool:
		return false
	case p.Kind != "" && t.Kind != p.Kind:
		return false
	case p.ActorID != uuid.Nil && t.ActorID != p.ActorID:
		return false
	case p.From != nil && t.CreatedAt.Before(*p.From):
		return false
	case p.To != nil && !t.CreatedAt.Before(*p.To):
		return false
	}
	return true
}

type Repository interface {
	// Balances returns zero balances before the first transaction.
	Balances(ctx context.Context) (Balances, error)
	// Apply moves the pool balance and appends t in one step, returning t
	// with BalanceAfter set. A withdrawal that would overdraw fails with
	// ErrInsufficientFunds and changes nothing.
	Apply(ctx context.Context, t Transaction) (Transaction, error)
	// Sums totals the ledger per pool.
	Sums(ctx context.Context) (map[Pool]decimal.Decimal, error)
	// Transactions lists newest first with the total matching count.
	Transactions(ctx context.Context, params *FindParams) ([]Transaction, int64, error)
}
