package viewmodels

import (
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/modules/finance/domain/aggregates/treasury"
	"github.com/iota-uz/precinct/pkg/money"
)

type Balances struct {
	Regular   money.Amount `json:"regular"`
	Untracked money.Amount `json:"untracked"`
	UpdatedAt *time.Time   `json:"updated_at,omitempty"`
}

type Transaction struct {
	ID           uuid.UUID    `json:"id"`
	Pool         string       `json:"pool"`
	Kind         string       `json:"kind"`
	Amount       money.Amount `json:"amount"`
	BalanceAfter money.Amount `json:"balance_after"`
	Reason       string       `json:"reason"`
	ActorID      uuid.UUID    `json:"actor_id"`
	CreatedAt    time.Time    `json:"created_at"`
}

type TransactionPage struct {
	Items []Transaction `json:"items"`
	Total int64         `json:"total"`
}

type Verification struct {
	Pool       string       `json:"pool"`
	Balance    money.Amount `json:"balance"`
	LedgerSum  money.Amount `json:"ledger_sum"`
	Consistent bool         `json:"consistent"`
}

func BalancesToViewModel(b treasury.Balances) Balances {
	out := Balances{Regular: money.NewAmount(b.Regular), Untracked: money.NewAmount(b.Untracked)}
	if !b.UpdatedAt.IsZero() {
		out.UpdatedAt = &b.UpdatedAt
	}
	return out
}

func TransactionToViewModel(t treasury.Transaction) Transaction {
	return Transaction{
		ID:           t.ID,
		Pool:         string(t.Pool),
		Kind:         string(t.Kind),
		Amount:       money.NewAmount(t.Amount),
		BalanceAfter: money.NewAmount(t.BalanceAfter),
		Reason:       t.Reason,
		ActorID:      t.ActorID,
		CreatedAt:    t.CreatedAt,
	}
}

func TransactionsToViewModel(list []treasury.Transaction, total int64) TransactionPage {
	items := make([]Transaction, 0, len(list))
	for _, t := range list {
		items = append(items, TransactionToViewModel(t))
	}
	return TransactionPage{Items: items, Total: total}
}

func VerificationsToViewModel(list []treasury.Verification) []Verification {
	out := make([]Verification, 0, len(list))
	for _, v := range list {
		out = append(out, Verification{
			Pool:       string(v.Pool),
			Balance:    money.NewAmount(v.Balance),
			LedgerSum:  money.NewAmount(v.LedgerSum),
			Consistent: v.Consistent,
		})
	}
	return out
}
