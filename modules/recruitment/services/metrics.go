package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stepSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "precinct",
		Subsystem: "recruitment",
		Name:      "step_submissions_total",
		Help:      "Application step submissions, by step and whether the application advanced.",
	}, []string{"step", "advanced"})

	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "precinct",
		Subsystem: "recruitment",
		Name:      "decisions_total",
		Help:      "Final application decisions, by outcome.",
	}, []string{"outcome"})
)
