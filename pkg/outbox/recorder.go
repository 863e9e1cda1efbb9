package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/eventbus"
)

// Recorder records events as part of the caller's unit of work.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// TxRecorder writes events into the outbox table using the transaction
// bound to ctx. The relay delivers them once the transaction commits.
type TxRecorder struct {
	table     pgx.Identifier
	publisher Publisher
}

func NewTxRecorder(table pgx.Identifier, publisher Publisher) *TxRecorder {
	if publisher == nil {
		publisher = NewPublisher()
	}
	return &TxRecorder{table: table, publisher: publisher}
}

func (r *TxRecorder) Record(ctx context.Context, ev Event) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("outbox: marshal %s: %w", ev.Topic(), err)
	}
	_, err = r.publisher.Enqueue(ctx, tx, r.table, Message{
		TenantID: tenantID,
		Topic:    ev.Topic(),
		EventID:  uuid.New(),
		Payload:  payload,
	})
	return err
}

// BusRecorder publishes events on the in-process bus after the surrounding
// unit of work commits. Used by the in-memory backend and tests.
type BusRecorder struct {
	bus    eventbus.EventBus
	logger *logrus.Entry
}

func NewBusRecorder(bus eventbus.EventBus, logger *logrus.Entry) *BusRecorder {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &BusRecorder{bus: bus, logger: logger.WithField("component", "outbox")}
}

func (r *BusRecorder) Record(ctx context.Context, ev Event) error {
	tenantID, _ := composables.UseTenantID(ctx)
	meta := &Meta{
		Table:      pgx.Identifier{"memory"},
		TenantID:   tenantID,
		Topic:      ev.Topic(),
		EventID:    uuid.New(),
		Attempts:   1,
		RecordedAt: time.Now(),
	}
	composables.AfterCommit(ctx, func(hookCtx context.Context) {
		err := r.bus.PublishE(hookCtx, meta, ev)
		if err == nil || errors.Is(err, eventbus.ErrNoSubscribers) {
			return
		}
		r.logger.WithError(err).WithFields(logrus.Fields{
			"topic":    meta.Topic,
			"event_id": meta.EventID.String(),
		}).Warn("outbox: in-process delivery failed")
	})
	return nil
}

func TableLabel(table pgx.Identifier) string {
	if len(table) == 0 {
		return ""
	}
	return strings.Join(table, ".")
}
