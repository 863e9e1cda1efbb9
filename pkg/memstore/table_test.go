package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/pkg/composables"
)

func TestTable_RollbackRestoresRows(t *testing.T) {
	ctx := composables.WithTenantID(context.Background(), uuid.New())
	table := NewTable[string, int]()
	require.NoError(t, table.Put(ctx, "kept", 1))

	tr := composables.NewMemoryTransactor()
	err := tr.InTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, table.Put(txCtx, "kept", 2))
		require.NoError(t, table.Put(txCtx, "new", 3))
		_, err := table.Delete(txCtx, "kept")
		require.NoError(t, err)
		return errors.New("abort")
	})
	require.Error(t, err)

	v, ok, err := table.Get(ctx, "kept")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok, err = table.Get(ctx, "new")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTable_TenantIsolation(t *testing.T) {
	table := NewTable[string, int]()
	a := composables.WithTenantID(context.Background(), uuid.New())
	b := composables.WithTenantID(context.Background(), uuid.New())

	require.NoError(t, table.Put(a, "x", 1))
	rows, err := table.Find(b, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = table.Find(context.Background(), nil)
	require.Error(t, err)
}

func TestPage(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, Page(all, 2, 2))
	assert.Equal(t, []int{5}, Page(all, 10, 4))
	assert.Empty(t, Page(all, 2, 9))
}
