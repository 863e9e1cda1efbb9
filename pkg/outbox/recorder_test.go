package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/eventbus"
)

type rankChanged struct {
	EmployeeID uuid.UUID `json:"employee_id"`
	Level      int       `json:"level"`
}

func (rankChanged) Topic() string { return "test.rank_changed" }

func newRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(func() Event { return &rankChanged{} })
	return reg
}

func TestRegistry_DecodeRoundTrip(t *testing.T) {
	reg := newRegistry()
	id := uuid.New()
	payload, err := json.Marshal(&rankChanged{EmployeeID: id, Level: 6})
	require.NoError(t, err)

	ev, err := reg.Decode("test.rank_changed", payload)
	require.NoError(t, err)
	require.IsType(t, &rankChanged{}, ev)
	assert.Equal(t, 6, ev.(*rankChanged).Level)

	_, err = reg.Decode("nope", payload)
	require.ErrorIs(t, err, ErrUnknownTopic)

	assert.Panics(t, func() { reg.Register(func() Event { return &rankChanged{} }) })
	assert.Equal(t, []string{"test.rank_changed"}, reg.Topics())
}

func TestBusRecorder_DeliversOnlyAfterCommit(t *testing.T) {
	bus := eventbus.NewEventPublisher(nil)
	var got []int
	bus.Subscribe(func(ctx context.Context, meta *Meta, ev *rankChanged) error {
		assert.Equal(t, "test.rank_changed", meta.Topic)
		got = append(got, ev.Level)
		return nil
	})
	rec := NewBusRecorder(bus, nil)
	tr := composables.NewMemoryTransactor()
	ctx := composables.WithTenantID(context.Background(), uuid.New())

	err := tr.InTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, rec.Record(txCtx, &rankChanged{Level: 2}))
		assert.Empty(t, got)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, got)

	err = tr.InTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, rec.Record(txCtx, &rankChanged{Level: 3}))
		return errors.New("rolled back")
	})
	require.Error(t, err)
	assert.Equal(t, []int{2}, got)
}

func TestBusDispatcher(t *testing.T) {
	bus := eventbus.NewEventPublisher(nil)
	tenant := uuid.New()
	var seen *rankChanged
	bus.Subscribe(func(ctx context.Context, meta *Meta, ev *rankChanged) error {
		got, err := composables.UseTenantID(ctx)
		require.NoError(t, err)
		assert.Equal(t, tenant, got)
		seen = ev
		return nil
	})
	d := NewBusDispatcher(bus, newRegistry())

	err := d.Dispatch(context.Background(), DispatchedMessage{
		Meta:    Meta{TenantID: tenant, Topic: "test.rank_changed", EventID: uuid.New()},
		Payload: json.RawMessage(`{"level":9}`),
	})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, 9, seen.Level)

	t.Run("no subscribers is not a failure", func(t *testing.T) {
		d := NewBusDispatcher(eventbus.NewEventPublisher(nil), newRegistry())
		require.NoError(t, d.Dispatch(context.Background(), DispatchedMessage{
			Meta:    Meta{TenantID: tenant, Topic: "test.rank_changed"},
			Payload: json.RawMessage(`{}`),
		}))
	})

	t.Run("handler error is returned for retry", func(t *testing.T) {
		bus := eventbus.NewEventPublisher(nil)
		bus.Subscribe(func(ctx context.Context, meta *Meta, ev *rankChanged) error { return errors.New("discord down") })
		d := NewBusDispatcher(bus, newRegistry())
		require.Error(t, d.Dispatch(context.Background(), DispatchedMessage{
			Meta:    Meta{TenantID: tenant, Topic: "test.rank_changed"},
			Payload: json.RawMessage(`{}`),
		}))
	})
}
