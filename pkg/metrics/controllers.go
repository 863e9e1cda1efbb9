// Package metrics exposes the operational endpoints: the Prometheus scrape
// handler and a readiness probe.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/httpapi"
)

type PrometheusController struct {
	path string
}

func NewPrometheusController(path string) application.Controller {
	if path == "" {
		path = "/debug/prometheus"
	}
	return &PrometheusController{path: path}
}

func (c *PrometheusController) Key() string {
	return c.path
}

func (c *PrometheusController) Register(r *mux.Router) {
	r.Handle(c.path, promhttp.Handler()).Methods(http.MethodGet)
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db      Pinger
	backend string
}

// NewHealthController reports readiness. db may be nil for the in-memory
// backend.
func NewHealthController(db Pinger, backend string) application.Controller {
	return &HealthController{db: db, backend: backend}
}

func (c *HealthController) Key() string {
	return "/health"
}

func (c *HealthController) Register(r *mux.Router) {
	r.HandleFunc("/health", c.health).Methods(http.MethodGet)
}

func (c *HealthController) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "storage": c.backend}
	if c.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := c.db.Ping(ctx); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			httpapi.WriteJSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}
	httpapi.WriteJSON(w, http.StatusOK, status)
}
