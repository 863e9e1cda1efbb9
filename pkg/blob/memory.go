package blob

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MemoryStore is a Store for tests and the in-memory backend.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string][]byte{}}
}

func (m *MemoryStore) Store(ctx context.Context, name string, r io.Reader) (Object, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return Object{}, err
	}
	mime := mimetype.Detect(buf.Bytes())
	path := "mem/" + uuid.NewString() + mime.Extension()
	m.mu.Lock()
	m.items[path] = buf.Bytes()
	m.mu.Unlock()
	return Object{Path: path, Mimetype: mime.String(), Size: int64(buf.Len())}, nil
}

func (m *MemoryStore) Retrieve(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.items[path]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	delete(m.items, path)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[path]
	return ok
}
