package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/modules/incentive/domain/payment"
	"github.com/iota-uz/precinct/modules/incentive/services"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/eventbus"
	"github.com/iota-uz/precinct/pkg/outbox"
)

type PaymentHandler struct {
	payments *services.PaymentService
	logger   *logrus.Entry
}

func NewPaymentHandler(payments *services.PaymentService, logger *logrus.Entry) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		logger:   logger.WithField("component", "incentive.handler"),
	}
}

func (h *PaymentHandler) Subscribe(bus eventbus.EventBus) {
	bus.Subscribe(h.onTriggered)
}

func (h *PaymentHandler) onTriggered(ctx context.Context, meta *outbox.Meta, ev *payment.TriggeredEvent) error {
	if meta != nil {
		ctx = composables.WithTenantID(ctx, meta.TenantID)
	}
	if _, err := h.payments.Pay(composables.WithLogger(ctx, h.logger), ev); err != nil {
		h.logger.WithError(err).WithField("source", ev.SourceRecordID).Warn("incentive payment failed")
		return err
	}
	return nil
}
