package outbox

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Registry maps topics to event constructors so stored payloads can be
// decoded back into typed events.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]func() Event
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]func() Event{}}
}

// Register binds newFn to the topic of the event it produces. Registering
// the same topic twice panics.
func (r *Registry) Register(newFn func() Event) {
	topic := newFn().Topic()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[topic]; dup {
		panic(fmt.Sprintf("outbox: topic %q registered twice", topic))
	}
	r.factories[topic] = newFn
}

func (r *Registry) Decode(topic string, payload []byte) (Event, error) {
	r.mu.RLock()
	newFn, ok := r.factories[topic]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	ev := newFn()
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, fmt.Errorf("outbox: decode %s: %w", topic, err)
	}
	return ev, nil
}

func (r *Registry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for t := range r.factories {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
