package services

import (
	"context"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/modules/hrm/domain/rank"
)

// allocateBadge picks the lowest free badge in team. It must run inside the
// caller's transaction so the prefix lock is held until commit.
func allocateBadge(ctx context.Context, repo employee.Repository, team rank.Team) (string, error) {
	if err := repo.LockBadgePrefix(ctx, team.Prefix); err != nil {
		return "", err
	}
	taken, err := repo.BadgesWithPrefix(ctx, team.Prefix)
	if err != nil {
		return "", err
	}
	badge, err := rank.AllocateBadge(team, taken)
	if err != nil {
		badgeAllocationsTotal.WithLabelValues(team.Prefix, "exhausted").Inc()
		return "", err
	}
	badgeAllocationsTotal.WithLabelValues(team.Prefix, "ok").Inc()
	return badge, nil
}
