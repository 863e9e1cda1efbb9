package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iota-uz/precinct/pkg/configuration"
)

func TestOpsGuard(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	guard := OpsGuard(configuration.OpsGuardOptions{
		Enabled:      true,
		Token:        "s3cret",
		CIDRs:        "10.0.0.0/8, 192.168.1.0/24",
		RealIPHeader: "X-Forwarded-For",
	}, "/debug/prometheus")(ok)

	cases := []struct {
		name   string
		path   string
		remote string
		header map[string]string
		want   int
	}{
		{"other path", "/api/v1/employees", "203.0.113.9:5000", nil, http.StatusOK},
		{"outside network", "/debug/prometheus", "203.0.113.9:5000", nil, http.StatusNotFound},
		{"allowed network", "/debug/prometheus", "10.1.2.3:5000", nil, http.StatusOK},
		{"forwarded for", "/debug/prometheus", "203.0.113.9:5000", map[string]string{"X-Forwarded-For": "192.168.1.7, 10.0.0.1"}, http.StatusOK},
		{"ops token", "/debug/prometheus", "203.0.113.9:5000", map[string]string{"X-Ops-Token": "s3cret"}, http.StatusOK},
		{"bearer", "/debug/prometheus", "203.0.113.9:5000", map[string]string{"Authorization": "Bearer s3cret"}, http.StatusOK},
		{"wrong token", "/debug/prometheus", "203.0.113.9:5000", map[string]string{"X-Ops-Token": "nope"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			guard.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestOpsGuard_DisabledPassesThrough(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	rec := httptest.NewRecorder()
	OpsGuard(configuration.OpsGuardOptions{}, "/debug/prometheus")(ok).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/prometheus", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
