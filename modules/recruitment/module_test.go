package recruitment_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/modules/hrm"
	"github.com/iota-uz/precinct/modules/incentive"
	"github.com/iota-uz/precinct/modules/incentive/domain/payment"
	incentiveservices "github.com/iota-uz/precinct/modules/incentive/services"
	"github.com/iota-uz/precinct/modules/recruitment"
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
		WithModules(hrm.NewModule(), incentive.NewModule(), recruitment.NewModule()).
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
	ctx := authz.WithActor(h.env.Ctx, actor)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req.WithContext(ctx))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&out), w.Body.String())
	return out
}

func (h *harness) item(t *testing.T, kind, label string) string {
	t.Helper()
	w := h.call(t, h.chief, http.MethodPost, "/api/v1/recruitment/settings/"+kind, fmt.Sprintf(`{"label":%q}`, label))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[map[string]any](t, w)["id"].(string)
}

func TestRecruitmentPipeline(t *testing.T) {
	h := newHarness(t)
	criterion := h.item(t, "criterion", "Is 18 or older")
	q1 := h.item(t, "question", "Why do you want to join?")
	q2 := h.item(t, "question", "Describe a traffic stop")

	w := h.call(t, h.chief, http.MethodPost, "/api/v1/recruitment/applications",
		`{"applicant_name":"Jane Doe","discord_id":"123456789012345678"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[map[string]any](t, w)["id"].(string)
	base := "/api/v1/recruitment/applications/" + id

	w = h.call(t, h.chief, http.MethodPost, base+"/criteria", `{"values":{}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[map[string]map[string]any](t, w)
	assert.Equal(t, false, res["result"]["advanced"])
	assert.Len(t, res["result"]["unmet"], 1)

	w = h.call(t, h.chief, http.MethodPost, base+"/criteria", fmt.Sprintf(`{"values":{%q:true}}`, criterion))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res = decode[map[string]map[string]any](t, w)
	assert.Equal(t, "QUESTIONS", res["application"]["status"])

	w = h.call(t, h.chief, http.MethodPost, base+"/questions", fmt.Sprintf(`{"answered":[%q]}`, q1))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res = decode[map[string]map[string]any](t, w)
	assert.Equal(t, false, res["result"]["advanced"])
	assert.EqualValues(t, 2, res["result"]["required"])

	w = h.call(t, h.chief, http.MethodPost, base+"/questions", fmt.Sprintf(`{"answered":[%q,%q]}`, q1, q2))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res = decode[map[string]map[string]any](t, w)
	assert.Equal(t, "ONBOARDING", res["application"]["status"])

	w = h.call(t, h.chief, http.MethodPost, base+"/invite", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://discord.gg/test1", decode[map[string]any](t, w)["invite_url"])

	w = h.call(t, h.chief, http.MethodPost, base+"/complete", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decode[map[string]any](t, w)
	assert.Equal(t, "COMPLETED", done["status"])
	assert.EqualValues(t, 4, done["step"])
	assert.NotEmpty(t, done["employee_id"])

	w = h.call(t, h.chief, http.MethodGet, "/api/v1/hrm/employees/"+done["employee_id"].(string), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	hired := decode[map[string]any](t, w)
	assert.Equal(t, "G-01", hired["badge_number"])
	assert.Equal(t, "Cadet", hired["rank_name"])

	payments := itf.GetService[incentiveservices.PaymentService](h.env)
	paid, err := payments.List(h.env.Ctx, h.chief, &payment.FindParams{EmployeeID: h.chief.ID})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, payment.ApplicationProcessed, paid[0].EventType)
	assert.Equal(t, "2000", paid[0].Amount.String())

	// A second application for the same identity cannot be completed.
	w = h.call(t, h.chief, http.MethodPost, "/api/v1/recruitment/applications",
		`{"applicant_name":"Jane Doe","discord_id":"123456789012345678"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	again := "/api/v1/recruitment/applications/" + decode[map[string]any](t, w)["id"].(string)
	h.call(t, h.chief, http.MethodPost, again+"/criteria", fmt.Sprintf(`{"values":{%q:true}}`, criterion))
	h.call(t, h.chief, http.MethodPost, again+"/questions", fmt.Sprintf(`{"answered":[%q,%q]}`, q1, q2))
	w = h.call(t, h.chief, http.MethodPost, again+"/complete", "")
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "ALREADY_EMPLOYED")
}

func TestRecruitmentReject(t *testing.T) {
	h := newHarness(t)
	w := h.call(t, h.chief, http.MethodPost, "/api/v1/recruitment/applications",
		`{"applicant_name":"John Roe","discord_id":"223456789012345678"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	base := "/api/v1/recruitment/applications/" + decode[map[string]any](t, w)["id"].(string)

	w = h.call(t, h.chief, http.MethodPost, base+"/reject", `{"reason":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = h.call(t, h.chief, http.MethodPost, base+"/reject", `{"reason":"failed interview","blacklist":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "REJECTED", decode[map[string]any](t, w)["status"])

	w = h.call(t, h.chief, http.MethodGet, "/api/v1/recruitment/settings/blacklist", "")
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]map[string]any](t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, "223456789012345678", entries[0]["discord_id"])

	w = h.call(t, h.env.Actor(authz.ApplicationsRead), http.MethodDelete, base, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = h.call(t, h.chief, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = h.call(t, h.chief, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
