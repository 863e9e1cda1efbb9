package eventbus

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/pkg/logging"
)

type promoted struct {
	level int
}

type demoted struct{}

func bufferedLogger(level logrus.Level) (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.SetLevel(level)
	return log, buf
}

func TestPublish_NoMatchingSubscribersIsLogged(t *testing.T) {
	log, buf := bufferedLogger(logrus.WarnLevel)
	bus := NewEventPublisher(log)
	bus.Subscribe(func(e *promoted) { t.Error("should not be called") })

	bus.Publish(&demoted{})

	assert.Contains(t, buf.String(), "no matching subscribers")
}

func TestPublish_DeliversToMatchingHandlers(t *testing.T) {
	bus := NewEventPublisher(logging.ConsoleLogger(logrus.WarnLevel))
	var got []int
	bus.Subscribe(func(e *promoted) { got = append(got, e.level) })
	bus.Subscribe(func(ctx context.Context, e *promoted) { got = append(got, e.level*10) })

	bus.Publish(&promoted{level: 6})
	bus.Publish(context.Background(), &promoted{level: 7})

	assert.Equal(t, []int{6, 70}, got)
}

func TestMatchSignature(t *testing.T) {
	assert.True(t, MatchSignature(func(e *promoted) {}, []any{&promoted{}}))
	assert.False(t, MatchSignature(func(e *promoted) {}, []any{&demoted{}}))
	assert.False(t, MatchSignature(func(e *promoted) {}, []any{}))
	assert.False(t, MatchSignature(func(e *promoted) {}, []any{&promoted{}, &promoted{}}))
	assert.True(t, MatchSignature(func(ctx context.Context) {}, []any{context.Background()}))
	assert.True(t, MatchSignature(func(e *promoted) {}, []any{nil}))
	assert.False(t, MatchSignature("not a func", []any{}))
}

func TestPublish_PanicIsRecoveredAndOthersRun(t *testing.T) {
	log, buf := bufferedLogger(logrus.WarnLevel)
	bus := NewEventPublisher(log)

	var calls int
	bus.Subscribe(func(e *promoted) { calls++ })
	bus.Subscribe(func(e *promoted) { panic("intentional") })
	bus.Subscribe(func(e *promoted) { calls++ })

	bus.Publish(&promoted{})

	assert.Equal(t, 2, calls)
	assert.Contains(t, buf.String(), "panicked")
	assert.NotContains(t, buf.String(), "no matching subscribers")
}

func TestPublish_AllHandlersPanicWarnsUnhandled(t *testing.T) {
	log, buf := bufferedLogger(logrus.WarnLevel)
	bus := NewEventPublisher(log)
	bus.Subscribe(func(e *promoted) { panic("always") })

	bus.Publish(&promoted{})

	assert.Contains(t, buf.String(), "no matching subscribers")
}

func TestPublishE(t *testing.T) {
	t.Run("no subscribers", func(t *testing.T) {
		bus := NewEventPublisher(nil)
		require.ErrorIs(t, bus.PublishE(&promoted{}), ErrNoSubscribers)
	})

	t.Run("joined handler errors", func(t *testing.T) {
		bus := NewEventPublisher(nil)
		err1, err2 := errors.New("err1"), errors.New("err2")
		bus.Subscribe(func(e *promoted) error { return err1 })
		bus.Subscribe(func(e *promoted) error { return err2 })

		err := bus.PublishE(&promoted{})
		require.ErrorIs(t, err, err1)
		require.ErrorIs(t, err, err2)
	})

	t.Run("panic surfaces as error", func(t *testing.T) {
		bus := NewEventPublisher(nil)
		called := false
		bus.Subscribe(func(e *promoted) error { panic("boom") })
		bus.Subscribe(func(e *promoted) error { called = true; return nil })

		require.Error(t, bus.PublishE(&promoted{}))
		assert.True(t, called)
	})

	t.Run("invalid return", func(t *testing.T) {
		bus := NewEventPublisher(nil)
		bus.Subscribe(func(e *promoted) int { return 1 })
		require.ErrorIs(t, bus.PublishE(&promoted{}), ErrInvalidHandlerReturn)
	})
}

func TestUnsubscribeAndClear(t *testing.T) {
	bus := NewEventPublisher(nil)
	h := func(e *promoted) {}
	bus.Subscribe(h)
	bus.Subscribe(func(e *demoted) {})
	require.Equal(t, 2, bus.SubscribersCount())

	bus.Unsubscribe(h)
	assert.Equal(t, 1, bus.SubscribersCount())

	bus.Clear()
	assert.Equal(t, 0, bus.SubscribersCount())
}

func TestConcurrentSubscribeAndPublish(t *testing.T) {
	bus := NewEventPublisher(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Subscribe(func(e *promoted) {})
		}()
		go func() {
			defer wg.Done()
			_ = bus.PublishE(&promoted{})
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, bus.SubscribersCount())
}
