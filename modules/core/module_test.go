package core_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/modules/core"
	"github.com/iota-uz/precinct/modules/hrm"
	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/itf"
)

type catalog struct{}

func (catalog) HasRole(slug string) bool { return slug == "hr" }

func newRouter(t *testing.T) *mux.Router {
	t.Helper()
	app, err := application.New(&application.ApplicationOptions{})
	require.NoError(t, err)
	require.NoError(t, hrm.NewModule().Register(app))
	require.NoError(t, core.NewModule(catalog{}).Register(app))
	r := mux.NewRouter()
	for _, c := range app.Controllers() {
		c.Register(r)
	}
	return r
}

func do(r *mux.Router, req *http.Request, actor *authz.Actor, tenantID uuid.UUID) *httptest.ResponseRecorder {
	ctx := composables.WithTenantID(req.Context(), tenantID)
	if actor != nil {
		ctx = authz.WithActor(ctx, *actor)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req.WithContext(ctx))
	return w
}

func TestRoleController(t *testing.T) {
	r := newRouter(t)
	tenantID := uuid.New()
	chief := itf.Actor(tenantID, authz.Wildcard)

	w := do(r, httptest.NewRequest(http.MethodPost, "/api/v1/core/roles",
		strings.NewReader(`{"discord_id":"123456789012345678","role":"hr"}`)), &chief, tenantID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, httptest.NewRequest(http.MethodPost, "/api/v1/core/roles",
		strings.NewReader(`{"discord_id":"123456789012345678","role":"janitor"}`)), &chief, tenantID)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/v1/core/roles", nil), &chief, tenantID)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "hr", list[0]["role"])

	w = do(r, httptest.NewRequest(http.MethodDelete, "/api/v1/core/roles/123456789012345678/hr", nil), &chief, tenantID)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRoleController_Me(t *testing.T) {
	r := newRouter(t)
	tenantID := uuid.New()

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/v1/core/me", nil), nil, tenantID)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	officer := itf.Actor(tenantID, authz.EmployeesRead)
	w = do(r, httptest.NewRequest(http.MethodGet, "/api/v1/core/me", nil), &officer, tenantID)
	require.Equal(t, http.StatusOK, w.Code)
	var me map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&me))
	assert.Equal(t, []any{"employees.read"}, me["permissions"])

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/v1/core/roles", nil), &officer, tenantID)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
