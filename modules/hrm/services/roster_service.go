package services

import (
	"context"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/modules/hrm/domain/rank"
	"github.com/iota-uz/precinct/modules/hrm/infrastructure/query"
	"github.com/iota-uz/precinct/pkg/authz"
)

type RosterEntry struct {
	RankLevel int    `json:"rank_level"`
	RankName  string `json:"rank_name"`
	Team      string `json:"team"`
	Status    string `json:"status"`
	Count     int    `json:"count"`
}

type Roster struct {
	Entries []RosterEntry  `json:"entries"`
	ByTeam  map[string]int `json:"by_team"`
	Total   int            `json:"total"`
}

// RosterService reports headcount per rank for the leadership dashboard.
// Terminated employees are left out of the team totals.
type RosterService struct {
	reader query.RosterReader
}

func NewRosterService(reader query.RosterReader) *RosterService {
	return &RosterService{reader: reader}
}

func (s *RosterService) Roster(ctx context.Context, actor authz.Actor) (Roster, error) {
	if err := actor.Require(authz.EmployeesRead); err != nil {
		return Roster{}, err
	}
	rows, err := s.reader.Roster(ctx, actor.TenantID)
	if err != nil {
		return Roster{}, err
	}
	out := Roster{Entries: make([]RosterEntry, 0, len(rows)), ByTeam: map[string]int{}}
	for _, row := range rows {
		t, _ := rank.TeamOf(row.RankLevel)
		team := t.Name
		out.Entries = append(out.Entries, RosterEntry{
			RankLevel: row.RankLevel,
			RankName:  rank.Name(row.RankLevel),
			Team:      team,
			Status:    row.Status,
			Count:     row.Count,
		})
		if row.Status == string(employee.StatusTerminated) {
			continue
		}
		out.ByTeam[team] += row.Count
		out.Total += row.Count
	}
	return out, nil
}
