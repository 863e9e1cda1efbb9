package itf

import (
	"context"
	"sync"

	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/outbox"
)

// RecordingRecorder is an outbox.Recorder that keeps committed events.
// Events recorded in a unit of work that rolls back are dropped.
type RecordingRecorder struct {
	mu     sync.Mutex
	events []outbox.Event
}

var _ outbox.Recorder = (*RecordingRecorder)(nil)

func NewRecordingRecorder() *RecordingRecorder {
	return &RecordingRecorder{}
}

func (r *RecordingRecorder) Record(ctx context.Context, ev outbox.Event) error {
	composables.AfterCommit(ctx, func(context.Context) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, ev)
	})
	return nil
}

func (r *RecordingRecorder) Events() []outbox.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]outbox.Event(nil), r.events...)
}

// Topics lists recorded topics in order.
func (r *RecordingRecorder) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Topic())
	}
	return out
}
