package academy_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/modules/academy"
	"github.com/iota-uz/precinct/modules/hrm"
	hrmservices "github.com/iota-uz/precinct/modules/hrm/services"
	"github.com/iota-uz/precinct/modules/incentive"
	"github.com/iota-uz/precinct/modules/incentive/domain/payment"
	incentiveservices "github.com/iota-uz/precinct/modules/incentive/services"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/itf"
)

type harness struct {
	env    *itf.TestEnvironment
	router *mux.Router
	chief  authz.Actor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	env := itf.NewTestContext().
		WithModules(hrm.NewModule(), incentive.NewModule(), academy.NewModule()).
		Build(t)
	r := mux.NewRouter()
	for _, c := range env.App.Controllers() {
		c.Register(r)
	}
	return &harness{env: env, router: r, chief: env.Chief()}
}

func (h *harness) call(t *testing.T, actor authz.Actor, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req.WithContext(authz.WithActor(h.env.Ctx, actor)))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&out), w.Body.String())
	return out
}

func (h *harness) module(t *testing.T, category, name string) string {
	t.Helper()
	w := h.call(t, h.chief, http.MethodPost, "/api/v1/academy/modules", fmt.Sprintf(`{"category":%q,"name":%q}`, category, name))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[map[string]any](t, w)["id"].(string)
}

func TestAcademyUprankFlow(t *testing.T) {
	h := newHarness(t)
	employees := itf.GetService[hrmservices.EmployeeService](h.env)
	trainee, err := employees.Hire(h.env.Ctx, "555000111", "Rookie", h.chief.ID)
	require.NoError(t, err)
	radio := h.module(t, "A", "Radio etiquette")
	stops := h.module(t, "A", "Traffic stops")
	h.module(t, "B", "Pursuit driving")
	base := "/api/v1/academy/employees/" + trainee.String()

	w := h.call(t, h.chief, http.MethodPost, base+"/upranks", `{"target_level":2}`)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, "NOT_ELIGIBLE", decode[map[string]any](t, w)["code"])

	for _, id := range []string{radio, stops} {
		w = h.call(t, h.chief, http.MethodPost, base+"/progress/"+id, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, true, decode[map[string]any](t, w)["completed"])
	}

	w = h.call(t, h.chief, http.MethodGet, base+"/eligibility", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	elig := decode[map[string]map[string]any](t, w)
	assert.Equal(t, true, elig["A"]["eligible"])
	assert.Equal(t, false, elig["B"]["eligible"])

	w = h.call(t, h.chief, http.MethodPost, base+"/upranks", `{"target_rank":"Captain of Nothing"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w = h.call(t, h.chief, http.MethodPost, base+"/upranks", `{"target_rank":"Junior Officer","target_level":3}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w = h.call(t, h.chief, http.MethodPost, base+"/upranks", `{"target_rank":"junior officer","achievements":"Top of class"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	requestID := decode[map[string]any](t, w)["id"].(string)

	w = h.call(t, h.chief, http.MethodPost, base+"/upranks", `{"target_level":2}`)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, "DUPLICATE_REQUEST", decode[map[string]any](t, w)["code"])

	reader := h.env.Actor(authz.AcademyRead)
	w = h.call(t, reader, http.MethodPost, "/api/v1/academy/upranks/"+requestID+"/approve", "")
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = h.call(t, reader, http.MethodGet, "/api/v1/academy/upranks?status=PENDING", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = h.call(t, h.chief, http.MethodPost, "/api/v1/academy/upranks/"+requestID+"/approve", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	approved := decode[map[string]map[string]any](t, w)
	assert.Equal(t, "APPROVED", approved["request"]["status"])
	assert.Equal(t, "Junior Officer", approved["rank"]["new_rank"])

	w = h.call(t, h.chief, http.MethodGet, "/api/v1/hrm/employees/"+trainee.String(), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Junior Officer", decode[map[string]any](t, w)["rank_name"])

	payments := itf.GetService[incentiveservices.PaymentService](h.env)
	paid, err := payments.List(h.env.Ctx, h.chief, &payment.FindParams{EmployeeID: h.chief.ID})
	require.NoError(t, err)
	require.Len(t, paid, 2)
	for _, p := range paid {
		assert.Equal(t, payment.ModuleCompleted, p.EventType)
	}
}

func TestAcademyExams(t *testing.T) {
	h := newHarness(t)
	employees := itf.GetService[hrmservices.EmployeeService](h.env)
	trainee, err := employees.Hire(h.env.Ctx, "555000222", "Rookie", h.chief.ID)
	require.NoError(t, err)

	w := h.call(t, h.chief, http.MethodPost, "/api/v1/academy/exams", fmt.Sprintf(`{"employee_id":%q,"category":"C"}`, trainee))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w = h.call(t, h.chief, http.MethodPost, "/api/v1/academy/exams", fmt.Sprintf(`{"employee_id":%q,"category":"A","passed":true}`, uuid.New()))
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = h.call(t, h.chief, http.MethodPost, "/api/v1/academy/exams", fmt.Sprintf(`{"employee_id":%q,"category":"A","passed":true}`, trainee))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.call(t, h.chief, http.MethodGet, "/api/v1/academy/exams?employee_id="+trainee.String(), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decode[[]map[string]any](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, true, list[0]["passed"])

	payments := itf.GetService[incentiveservices.PaymentService](h.env)
	paid, err := payments.List(h.env.Ctx, h.chief, &payment.FindParams{EmployeeID: h.chief.ID})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, "2500", paid[0].Amount.String())
}
