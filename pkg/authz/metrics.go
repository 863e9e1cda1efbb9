package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "precinct",
	Subsystem: "authz",
	Name:      "decisions_total",
	Help:      "Capability checks broken down by permission and result.",
}, []string{"permission", "result"})

func recordDecision(perms []Permission, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	permission := ""
	if len(perms) > 0 {
		permission = string(perms[0])
	}
	decisions.With(prometheus.Labels{
		"permission": permission,
		"result":     result,
	}).Inc()
}
