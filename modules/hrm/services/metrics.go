package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rankChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "precinct",
		Subsystem: "hrm",
		Name:      "rank_changes_total",
		Help:      "Rank changes applied, by direction and whether the team changed.",
	}, []string{"direction", "team_changed"})

	badgeAllocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "precinct",
		Subsystem: "hrm",
		Name:      "badge_allocations_total",
		Help:      "Badge allocation attempts, by team prefix and result.",
	}, []string{"prefix", "result"})

	unitSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "precinct",
		Subsystem: "hrm",
		Name:      "unit_role_sync_total",
		Help:      "Unit role synchronisations against the external role store.",
	}, []string{"result"})
)
