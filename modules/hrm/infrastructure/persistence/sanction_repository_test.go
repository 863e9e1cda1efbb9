package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/constants"
)

var errStop = errors.New("stop")

// captureTx records statements and fails every one of them.
type captureTx struct {
	sql []string
}

func (c *captureTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	c.sql = append(c.sql, sql)
	return pgconn.CommandTag{}, errStop
}

func (c *captureTx) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	c.sql = append(c.sql, sql)
	return nil, errStop
}

func (c *captureTx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	c.sql = append(c.sql, sql)
	return nil
}

func TestPgSanctionRepository_LockingRead(t *testing.T) {
	tx := &captureTx{}
	ctx := composables.WithTenantID(context.Background(), uuid.New())
	ctx = context.WithValue(ctx, constants.TxKey, tx)
	r := NewSanctionRepository()

	_, err := r.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, errStop)
	_, err = r.GetByIDForUpdate(ctx, uuid.New())
	require.ErrorIs(t, err, errStop)

	require.Len(t, tx.sql, 2)
	assert.NotContains(t, tx.sql[0], "FOR UPDATE")
	assert.Contains(t, tx.sql[1], "FOR UPDATE")
}
