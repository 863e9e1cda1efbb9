package query

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/modules/hrm/infrastructure/persistence"
	"github.com/iota-uz/precinct/pkg/composables"
)

func TestPgRosterQuery_Roster(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tenantID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT rank_level, status, COUNT(*) AS headcount")).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"rank_level", "status", "headcount"}).
			AddRow(6, "ACTIVE", 3).
			AddRow(1, "ACTIVE", 12).
			AddRow(1, "ON_LEAVE", 1))

	rows, err := NewPgRosterQuery(sqlx.NewDb(db, "pgx")).Roster(context.Background(), tenantID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, RosterRow{RankLevel: 6, Status: "ACTIVE", Count: 3}, rows[0])
	assert.Equal(t, 12, rows[1].Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRosterQuery_UsesDollarPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherFunc(func(_, actual string) error {
		if !regexp.MustCompile(`tenant_id = \$1`).MatchString(actual) {
			return assert.AnError
		}
		return nil
	})))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("roster").WillReturnRows(sqlmock.NewRows([]string{"rank_level", "status", "headcount"}))
	rows, err := NewPgRosterQuery(sqlx.NewDb(db, "pgx")).Roster(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRepositoryRosterQuery_Roster(t *testing.T) {
	tenantID := uuid.New()
	ctx := composables.WithTenantID(context.Background(), tenantID)
	repo := persistence.NewMemoryEmployeeRepository()
	now := time.Now()
	seed := []struct {
		level  int
		badge  string
		status employee.Status
	}{
		{1, "G-01", employee.StatusActive},
		{1, "G-02", employee.StatusActive},
		{6, "S-01", employee.StatusActive},
		{6, "S-02", employee.StatusOnLeave},
	}
	for i, s := range seed {
		e := employee.Hydrate(uuid.New(), tenantID, fmt.Sprintf("2000000000%d", i), "Officer",
			s.level, s.badge, s.status, now, nil, now, now)
		_, err := repo.Create(ctx, e)
		require.NoError(t, err)
	}

	rows, err := NewRepositoryRosterQuery(repo).Roster(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, []RosterRow{
		{RankLevel: 6, Status: string(employee.StatusActive), Count: 1},
		{RankLevel: 6, Status: string(employee.StatusOnLeave), Count: 1},
		{RankLevel: 1, Status: string(employee.StatusActive), Count: 2},
	}, rows)
}
