package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/modules/incentive/domain/payment"
	"github.com/iota-uz/precinct/modules/incentive/infrastructure/persistence"
	"github.com/iota-uz/precinct/modules/incentive/services"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/eventbus"
	"github.com/iota-uz/precinct/pkg/itf"
	"github.com/iota-uz/precinct/pkg/logging"
	"github.com/iota-uz/precinct/pkg/outbox"
)

type harness struct {
	ctx      context.Context
	tenantID uuid.UUID
	tx       composables.Transactor
	emitter  *services.Emitter
	payments *services.PaymentService
}

func newHarness() *harness {
	tenantID := uuid.New()
	tx := composables.NewMemoryTransactor()
	bus := eventbus.NewEventPublisher(logging.Nop().Logger)
	payments := services.NewPaymentService(persistence.NewMemoryPaymentRepository(), map[string]decimal.Decimal{
		payment.ModuleCompleted: decimal.NewFromInt(1500),
		payment.ExamConducted:   decimal.NewFromInt(2500),
	}, tx)
	NewPaymentHandler(payments, logging.Nop()).Subscribe(bus)
	return &harness{
		ctx:      composables.WithTenantID(context.Background(), tenantID),
		tenantID: tenantID,
		tx:       tx,
		emitter:  services.NewEmitter(outbox.NewBusRecorder(bus, logging.Nop())),
		payments: payments,
	}
}

func (h *harness) emit(t *testing.T, eventType string, actor uuid.UUID, source string, fail bool) {
	t.Helper()
	err := h.tx.InTx(h.ctx, func(ctx context.Context) error {
		if err := h.emitter.Emit(ctx, eventType, actor, "Cadet Doe", source); err != nil {
			return err
		}
		if fail {
			return errors.New("boom")
		}
		return nil
	})
	if !fail {
		require.NoError(t, err)
	}
}

func TestPaymentHandler_PaysOncePerSourceRecord(t *testing.T) {
	h := newHarness()
	instructor := uuid.New()

	h.emit(t, payment.ModuleCompleted, instructor, "progress-1", false)
	h.emit(t, payment.ModuleCompleted, instructor, "progress-1", false)
	h.emit(t, payment.ExamConducted, instructor, "exam-1", false)

	reader := itf.Actor(h.tenantID, authz.IncentivesRead)
	list, err := h.payments.List(h.ctx, reader, &payment.FindParams{EmployeeID: instructor})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	summary, err := h.payments.WeeklySummary(h.ctx, reader, "")
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.True(t, decimal.NewFromInt(4000).Equal(summary[0].Total))
}

func TestPaymentHandler_RolledBackWorkPaysNothing(t *testing.T) {
	h := newHarness()
	h.emit(t, payment.ModuleCompleted, uuid.New(), "progress-1", true)

	list, err := h.payments.List(h.ctx, itf.Actor(h.tenantID, authz.IncentivesRead), nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPaymentHandler_SkipsUnratedAndAnonymous(t *testing.T) {
	h := newHarness()
	h.emit(t, payment.ApplicationProcessed, uuid.New(), "app-1", false)
	h.emit(t, payment.ModuleCompleted, uuid.Nil, "progress-2", false)

	list, err := h.payments.List(h.ctx, itf.Actor(h.tenantID, authz.IncentivesRead), nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEmitter_RejectsUnknownType(t *testing.T) {
	h := newHarness()
	err := h.emitter.Emit(h.ctx, "bribe_taken", uuid.New(), "", "x")
	require.Error(t, err)
}

func TestPaymentService_RequiresRead(t *testing.T) {
	h := newHarness()
	_, err := h.payments.List(h.ctx, itf.Actor(h.tenantID), nil)
	require.ErrorIs(t, err, authz.ErrPermissionDenied)
	_, err = h.payments.WeeklySummary(h.ctx, itf.Actor(h.tenantID), "")
	require.ErrorIs(t, err, authz.ErrPermissionDenied)
}
