package query

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/modules/finance/domain/aggregates/treasury"
	"github.com/iota-uz/precinct/modules/finance/infrastructure/persistence"
	"github.com/iota-uz/precinct/pkg/composables"
)

func TestPgSummaryQuery_MonthlySummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tenantID := uuid.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 3, 0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM treasury_transactions")).
		WithArgs(tenantID, from, to).
		WillReturnRows(sqlmock.NewRows([]string{"month", "pool", "kind", "movements", "total"}).
			AddRow("2026-02", "REGULAR", "DEPOSIT", 2, "1500.00").
			AddRow("2026-01", "UNTRACKED", "WITHDRAWAL", 1, "20.50"))

	rows, err := NewPgSummaryQuery(sqlx.NewDb(db, "pgx")).MonthlySummary(context.Background(), tenantID, from, to)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-02", rows[0].Month)
	assert.Equal(t, 2, rows[0].Count)
	assert.True(t, rows[0].Total.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, "20.5", rows[1].Total.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositorySummaryQuery_MonthlySummary(t *testing.T) {
	tenantID := uuid.New()
	ctx := composables.WithTenantID(context.Background(), tenantID)
	repo := persistence.NewMemoryTreasuryRepository()
	actor := uuid.New()

	apply := func(pool treasury.Pool, kind treasury.Kind, amount int64) {
		t.Helper()
		tx, err := treasury.NewTransaction(tenantID, pool, kind, decimal.NewFromInt(amount), "seed", actor)
		require.NoError(t, err)
		_, err = repo.Apply(ctx, tx)
		require.NoError(t, err)
	}
	apply(treasury.PoolRegular, treasury.KindDeposit, 1000)
	apply(treasury.PoolRegular, treasury.KindDeposit, 500)
	apply(treasury.PoolRegular, treasury.KindWithdrawal, 200)

	now := time.Now()
	rows, err := NewRepositorySummaryQuery(repo).MonthlySummary(ctx, tenantID, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "DEPOSIT", rows[0].Kind)
	assert.Equal(t, 2, rows[0].Count)
	assert.True(t, rows[0].Total.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, "WITHDRAWAL", rows[1].Kind)

	rows, err = NewRepositorySummaryQuery(repo).MonthlySummary(ctx, tenantID, now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
