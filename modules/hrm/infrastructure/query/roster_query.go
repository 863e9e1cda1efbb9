// Package query holds read-only projections that bypass the aggregates.
package query

import (
	"context"
	"math"
	"sort"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
)

// RosterRow counts employees sharing a rank level and status.
type RosterRow struct {
	RankLevel int    `db:"rank_level" json:"rank_level"`
	Status    string `db:"status" json:"status"`
	Count     int    `db:"headcount" json:"count"`
}

type RosterReader interface {
	Roster(ctx context.Context, tenantID uuid.UUID) ([]RosterRow, error)
}

const rosterQuery = `SELECT rank_level, status, COUNT(*) AS headcount
	FROM hrm_employees
	WHERE tenant_id = ?
	GROUP BY rank_level, status
	ORDER BY rank_level DESC, status`

type PgRosterQuery struct {
	db *sqlx.DB
}

func NewPgRosterQuery(db *sqlx.DB) *PgRosterQuery {
	return &PgRosterQuery{db: db}
}

func (q *PgRosterQuery) Roster(ctx context.Context, tenantID uuid.UUID) ([]RosterRow, error) {
	rows := []RosterRow{}
	if err := q.db.SelectContext(ctx, &rows, q.db.Rebind(rosterQuery), tenantID); err != nil {
		return nil, gerrors.Wrap(err, "query roster")
	}
	return rows, nil
}

// RepositoryRosterQuery computes the roster from the employee repository.
// The in-memory backend uses it.
type RepositoryRosterQuery struct {
	repo employee.Repository
}

func NewRepositoryRosterQuery(repo employee.Repository) *RepositoryRosterQuery {
	return &RepositoryRosterQuery{repo: repo}
}

func (q *RepositoryRosterQuery) Roster(ctx context.Context, _ uuid.UUID) ([]RosterRow, error) {
	all, _, err := q.repo.GetPaginated(ctx, &employee.FindParams{Limit: math.MaxInt32})
	if err != nil {
		return nil, err
	}
	type key struct {
		level  int
		status string
	}
	counts := map[key]int{}
	for _, e := range all {
		counts[key{e.RankLevel(), string(e.Status())}]++
	}
	rows := make([]RosterRow, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, RosterRow{RankLevel: k.level, Status: k.status, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RankLevel != rows[j].RankLevel {
			return rows[i].RankLevel > rows[j].RankLevel
		}
		return rows[i].Status < rows[j].Status
	})
	return rows, nil
}
