package outbox

import (
	"context"
	"errors"

	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/eventbus"
)

// Dispatcher hands a relayed message to the bus as a decoded, typed event.
// Subscribers have the shape func(ctx context.Context, meta *Meta, ev *T) error.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg DispatchedMessage) error
}

type BusDispatcher struct {
	bus      eventbus.EventBus
	registry *Registry
}

func NewBusDispatcher(bus eventbus.EventBus, registry *Registry) *BusDispatcher {
	return &BusDispatcher{bus: bus, registry: registry}
}

func (d *BusDispatcher) Dispatch(ctx context.Context, msg DispatchedMessage) error {
	ev, err := d.registry.Decode(msg.Meta.Topic, msg.Payload)
	if err != nil {
		return err
	}
	meta := msg.Meta
	ctx = composables.WithTenantID(ctx, meta.TenantID)
	err = d.bus.PublishE(ctx, &meta, ev)
	if errors.Is(err, eventbus.ErrNoSubscribers) {
		return nil
	}
	return err
}
