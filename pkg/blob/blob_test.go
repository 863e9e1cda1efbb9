package blob

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallest valid PNG header is enough for content sniffing
var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func TestFSStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewFSStore(t.TempDir(), 1024)

	obj, err := s.Store(ctx, "id.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.Mimetype)
	assert.Contains(t, obj.Path, ".png")

	data, err := s.Retrieve(ctx, obj.Path)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	require.NoError(t, s.Delete(ctx, obj.Path))
	require.NoError(t, s.Delete(ctx, obj.Path), "second delete is a no-op")

	_, err = s.Retrieve(ctx, obj.Path)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore_Rejects(t *testing.T) {
	ctx := context.Background()
	s := NewFSStore(t.TempDir(), 8)

	_, err := s.Store(ctx, "big.png", bytes.NewReader(pngBytes))
	require.ErrorIs(t, err, ErrTooLarge)

	s = NewFSStore(t.TempDir(), 1024)
	_, err = s.Store(ctx, "notes.txt", bytes.NewReader([]byte("plain text")))
	require.ErrorIs(t, err, ErrUnsupportedType)

	_, err = s.Retrieve(ctx, "../../etc/passwd")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	obj, err := m.Store(ctx, "x", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	assert.True(t, m.Has(obj.Path))
	require.NoError(t, m.Delete(ctx, obj.Path))
	assert.False(t, m.Has(obj.Path))
}
