package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/modules/incentive/domain/payment"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
)

type PaymentService struct {
	repo       payment.Repository
	rates      map[string]decimal.Decimal
	transactor composables.Transactor
}

func NewPaymentService(repo payment.Repository, rates map[string]decimal.Decimal, transactor composables.Transactor) *PaymentService {
	return &PaymentService{
		repo:       repo,
		rates:      rates,
		transactor: transactor,
	}
}

// Pay books the incentive for ev. Triggers without an employee actor and
// event types without a rate are skipped; a repeated source record is a
// no-op. It reports whether a payment was written.
func (s *PaymentService) Pay(ctx context.Context, ev *payment.TriggeredEvent) (bool, error) {
	logger := composables.UseLogger(ctx).WithFields(logrus.Fields{
		"component":  "incentive",
		"event_type": ev.EventType,
		"source":     ev.SourceRecordID,
	})
	rate, ok := s.rates[ev.EventType]
	if !ok || ev.ActorEmployeeID == uuid.Nil {
		paymentsTotal.WithLabelValues(ev.EventType, "skipped").Inc()
		logger.Debug("incentive skipped")
		return false, nil
	}
	at := ev.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	created, err := composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (bool, error) {
		tenantID, err := composables.UseTenantID(txCtx)
		if err != nil {
			return false, err
		}
		return s.repo.Create(txCtx, payment.New(tenantID, ev.ActorEmployeeID, ev.EventType, ev.SubjectLabel, ev.SourceRecordID, rate, at))
	})
	if err != nil {
		return false, err
	}
	if !created {
		paymentsTotal.WithLabelValues(ev.EventType, "duplicate").Inc()
		logger.Info("incentive already paid")
		return false, nil
	}
	paymentsTotal.WithLabelValues(ev.EventType, "paid").Inc()
	logger.WithField("employee_id", ev.ActorEmployeeID).Info("incentive paid")
	return true, nil
}

func (s *PaymentService) List(ctx context.Context, actor authz.Actor, params *payment.FindParams) ([]payment.Payment, error) {
	if err := actor.Require(authz.IncentivesRead); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) ([]payment.Payment, error) {
		return s.repo.List(txCtx, params)
	})
}

// WeeklySummary totals payments per employee for an ISO week; an empty week
// means the current one.
func (s *PaymentService) WeeklySummary(ctx context.Context, actor authz.Actor, week string) ([]payment.Summary, error) {
	if err := actor.Require(authz.IncentivesRead); err != nil {
		return nil, err
	}
	if week == "" {
		week = payment.Week(time.Now())
	}
	week, err := payment.ParseWeek(week)
	if err != nil {
		return nil, err
	}
	ps, err := composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) ([]payment.Payment, error) {
		return s.repo.ByWeek(txCtx, week)
	})
	if err != nil {
		return nil, err
	}
	return payment.Summarize(week, ps), nil
}
