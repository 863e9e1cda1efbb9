package incentive_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/modules/incentive"
	"github.com/iota-uz/precinct/modules/incentive/domain/payment"
	"github.com/iota-uz/precinct/modules/incentive/services"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/itf"
)

func get(t *testing.T, env *itf.TestEnvironment, actor authz.Actor, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := mux.NewRouter()
	for _, c := range env.App.Controllers() {
		c.Register(r)
	}
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req.WithContext(authz.WithActor(env.Ctx, actor)))
	return w
}

func TestIncentiveEndpoints(t *testing.T) {
	env := itf.NewTestContext().
		WithModules(incentive.NewModule()).
		WithEnv("INCENTIVE_RATE_EXAM_CONDUCTED", "3000").
		Build(t)
	payments := itf.GetService[services.PaymentService](env)

	instructor := uuid.New()
	now := time.Now()
	for _, ev := range []*payment.TriggeredEvent{
		{EventType: payment.ModuleCompleted, ActorEmployeeID: instructor, SubjectLabel: "Cadet Doe", SourceRecordID: "progress-1", OccurredAt: now},
		{EventType: payment.ExamConducted, ActorEmployeeID: instructor, SubjectLabel: "Cadet Doe", SourceRecordID: "exam-1", OccurredAt: now},
		{EventType: payment.ExamConducted, ActorEmployeeID: instructor, SubjectLabel: "Cadet Doe", SourceRecordID: "exam-1", OccurredAt: now},
	} {
		_, err := payments.Pay(env.Ctx, ev)
		require.NoError(t, err)
	}

	w := get(t, env, env.Chief(), "/api/v1/incentives?employee_id="+instructor.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = get(t, env, env.Actor(authz.IncentivesRead), "/api/v1/incentives/summary?week="+payment.Week(now))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary []struct {
		EmployeeID string                 `json:"employee_id"`
		Count      int                    `json:"count"`
		Total      struct{ Value string } `json:"total"`
		ByType     map[string]int         `json:"by_type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	require.Len(t, summary, 1)
	assert.Equal(t, instructor.String(), summary[0].EmployeeID)
	assert.Equal(t, 2, summary[0].Count)
	assert.Equal(t, "4500.00", summary[0].Total.Value)
	assert.Equal(t, 1, summary[0].ByType[payment.ExamConducted])

	w = get(t, env, env.Actor(authz.IncentivesRead), "/api/v1/incentives/summary?week=bogus")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w = get(t, env, env.Actor(), "/api/v1/incentives")
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
}
