package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/modules/finance/domain/aggregates/treasury"
	"github.com/iota-uz/precinct/modules/finance/infrastructure/query"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/serrors"
)

type MovementDTO struct {
	Pool   treasury.Pool   `json:"pool" validate:"required,oneof=REGULAR UNTRACKED"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" validate:"required,max=500"`
}

type TreasuryService struct {
	repo       treasury.Repository
	summaries  query.SummaryReader
	transactor composables.Transactor
}

func NewTreasuryService(repo treasury.Repository, summaries query.SummaryReader, transactor composables.Transactor) *TreasuryService {
	return &TreasuryService{
		repo:       repo,
		summaries:  summaries,
		transactor: transactor,
	}
}

func (s *TreasuryService) Balances(ctx context.Context, actor authz.Actor) (treasury.Balances, error) {
	if err := actor.Require(authz.TreasuryRead); err != nil {
		return treasury.Balances{}, err
	}
	return composables.InTxResult(ctx, s.transactor, s.repo.Balances)
}

func (s *TreasuryService) Deposit(ctx context.Context, actor authz.Actor, dto MovementDTO) (treasury.Transaction, error) {
	if err := actor.Require(authz.TreasuryDeposit); err != nil {
		return treasury.Transaction{}, err
	}
	return s.apply(ctx, actor, treasury.KindDeposit, dto)
}

// Withdraw fails with ErrInsufficientFunds, leaving the pool untouched,
// when the amount exceeds the pool balance.
func (s *TreasuryService) Withdraw(ctx context.Context, actor authz.Actor, dto MovementDTO) (treasury.Transaction, error) {
	if err := actor.Require(authz.TreasuryWithdraw); err != nil {
		return treasury.Transaction{}, err
	}
	return s.apply(ctx, actor, treasury.KindWithdrawal, dto)
}

func (s *TreasuryService) apply(ctx context.Context, actor authz.Actor, kind treasury.Kind, dto MovementDTO) (treasury.Transaction, error) {
	t, err := composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (treasury.Transaction, error) {
		tenantID, err := composables.UseTenantID(txCtx)
		if err != nil {
			return treasury.Transaction{}, err
		}
		t, err := treasury.NewTransaction(tenantID, dto.Pool, kind, dto.Amount, dto.Reason, actor.ID)
		if err != nil {
			return treasury.Transaction{}, err
		}
		return s.repo.Apply(txCtx, t)
	})
	if err != nil {
		if errors.Is(err, treasury.ErrInsufficientFunds) {
			transactionsTotal.WithLabelValues(string(dto.Pool), string(kind), "insufficient").Inc()
		}
		return treasury.Transaction{}, err
	}
	transactionsTotal.WithLabelValues(string(t.Pool), string(kind), "applied").Inc()
	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"transaction_id": t.ID,
		"pool":           t.Pool,
		"kind":           t.Kind,
		"amount":         t.Amount.StringFixed(2),
		"balance_after":  t.BalanceAfter.StringFixed(2),
	}).Info("treasury transaction applied")
	return t, nil
}

func (s *TreasuryService) History(ctx context.Context, actor authz.Actor, params *treasury.FindParams) ([]treasury.Transaction, int64, error) {
	if err := actor.Require(authz.TreasuryRead); err != nil {
		return nil, 0, err
	}
	type page struct {
		list  []treasury.Transaction
		total int64
	}
	res, err := composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (page, error) {
		list, total, err := s.repo.Transactions(txCtx, params)
		return page{list, total}, err
	})
	return res.list, res.total, err
}

// VerifyLedger recomputes each pool from its transaction log and compares
// it with the stored balance.
func (s *TreasuryService) VerifyLedger(ctx context.Context, actor authz.Actor) ([]treasury.Verification, error) {
	if err := actor.Require(authz.TreasuryRead); err != nil {
		return nil, err
	}
	out, err := composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) ([]treasury.Verification, error) {
		b, err := s.repo.Balances(txCtx)
		if err != nil {
			return nil, err
		}
		sums, err := s.repo.Sums(txCtx)
		if err != nil {
			return nil, err
		}
		return treasury.Verify(b, sums), nil
	})
	if err != nil {
		return nil, err
	}
	for _, v := range out {
		if !v.Consistent {
			ledgerDriftTotal.Inc()
			composables.UseLogger(ctx).WithFields(logrus.Fields{
				"pool":       v.Pool,
				"balance":    v.Balance.StringFixed(2),
				"ledger_sum": v.LedgerSum.StringFixed(2),
			}).Error("treasury ledger drift")
		}
	}
	return out, nil
}

// MonthlySummary totals movements per month within [from, to).
func (s *TreasuryService) MonthlySummary(ctx context.Context, actor authz.Actor, from, to time.Time) ([]query.SummaryRow, error) {
	if err := actor.Require(authz.TreasuryRead); err != nil {
		return nil, err
	}
	if !from.Before(to) {
		return nil, serrors.ValidationErrors{"to": "must be after from"}.AsError()
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) ([]query.SummaryRow, error) {
		tenantID, err := composables.UseTenantID(txCtx)
		if err != nil {
			return nil, err
		}
		return s.summaries.MonthlySummary(txCtx, tenantID, from, to)
	})
}

// Consistent reports whether every pool in v balances.
func Consistent(v []treasury.Verification) bool {
	for _, p := range v {
		if !p.Consistent {
			return false
		}
	}
	return true
}

