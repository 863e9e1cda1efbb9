// Package memstore backs the in-memory storage backend.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/pkg/composables"
)

// Table is a tenant-partitioned map used by the in-memory repositories.
// Writes made inside a composables.MemoryTransactor unit are undone when the
// unit fails.
type Table[K comparable, V any] struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]map[K]V
}

func NewTable[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{rows: map[uuid.UUID]map[K]V{}}
}

func (t *Table[K, V]) partition(ctx context.Context) (uuid.UUID, error) {
	return composables.UseTenantID(ctx)
}

func (t *Table[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V
	tenantID, err := t.partition(ctx)
	if err != nil {
		return zero, false, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[tenantID][key]
	return v, ok, nil
}

func (t *Table[K, V]) Put(ctx context.Context, key K, value V) error {
	tenantID, err := t.partition(ctx)
	if err != nil {
		return err
	}
	t.mu.Lock()
	part, ok := t.rows[tenantID]
	if !ok {
		part = map[K]V{}
		t.rows[tenantID] = part
	}
	prev, existed := part[key]
	part[key] = value
	t.mu.Unlock()

	composables.OnRollback(ctx, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if existed {
			t.rows[tenantID][key] = prev
		} else {
			delete(t.rows[tenantID], key)
		}
	})
	return nil
}

func (t *Table[K, V]) Delete(ctx context.Context, key K) (bool, error) {
	tenantID, err := t.partition(ctx)
	if err != nil {
		return false, err
	}
	t.mu.Lock()
	prev, existed := t.rows[tenantID][key]
	if existed {
		delete(t.rows[tenantID], key)
	}
	t.mu.Unlock()
	if existed {
		composables.OnRollback(ctx, func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.rows[tenantID][key] = prev
		})
	}
	return existed, nil
}

// Find returns the values accepted by match, in no particular order.
func (t *Table[K, V]) Find(ctx context.Context, match func(V) bool) ([]V, error) {
	tenantID, err := t.partition(ctx)
	if err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]V, 0)
	for _, v := range t.rows[tenantID] {
		if match == nil || match(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// First returns any value accepted by match.
func (t *Table[K, V]) First(ctx context.Context, match func(V) bool) (V, bool, error) {
	var zero V
	tenantID, err := t.partition(ctx)
	if err != nil {
		return zero, false, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, v := range t.rows[tenantID] {
		if match(v) {
			return v, true, nil
		}
	}
	return zero, false, nil
}

// Page applies limit and offset to an already ordered slice.
func Page[V any](all []V, limit, offset int) []V {
	if offset >= len(all) {
		return []V{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}
