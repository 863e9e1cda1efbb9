package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/precinct/modules/incentive/domain/payment"
	"github.com/iota-uz/precinct/modules/incentive/services"
	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/httpapi"
	"github.com/iota-uz/precinct/pkg/money"
)

type paymentListQuery struct {
	EmployeeID uuid.UUID `query:"employee_id"`
	Week       string    `query:"week" validate:"omitempty,max=8"`
}

type summaryQuery struct {
	Week string `query:"week" validate:"omitempty,max=8"`
}

type paymentResponse struct {
	ID             string       `json:"id"`
	EmployeeID     string       `json:"employee_id"`
	EventType      string       `json:"event_type"`
	SubjectLabel   string       `json:"subject_label"`
	SourceRecordID string       `json:"source_record_id"`
	Amount         money.Amount `json:"amount"`
	Week           string       `json:"week"`
	CreatedAt      time.Time    `json:"created_at"`
}

type summaryResponse struct {
	EmployeeID string         `json:"employee_id"`
	Week       string         `json:"week"`
	Count      int            `json:"count"`
	Total      money.Amount   `json:"total"`
	ByType     map[string]int `json:"by_type"`
}

type IncentiveController struct {
	payments *services.PaymentService
	basePath string
}

func NewIncentiveController(app application.Application) application.Controller {
	return &IncentiveController{
		payments: app.Service(services.PaymentService{}).(*services.PaymentService),
		basePath: "/api/v1/incentives",
	}
}

func (c *IncentiveController) Key() string {
	return c.basePath
}

func (c *IncentiveController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/summary", c.Summary).Methods(http.MethodGet)
}

func (c *IncentiveController) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var q paymentListQuery
	if err := httpapi.DecodeQuery(r, &q); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	if q.Week != "" {
		week, err := payment.ParseWeek(q.Week)
		if err != nil {
			httpapi.WriteServiceError(w, r, err)
			return
		}
		q.Week = week
	}
	limit, offset := httpapi.Page(r, 25, 100)
	list, err := c.payments.List(r.Context(), actor, &payment.FindParams{
		EmployeeID: q.EmployeeID,
		Week:       q.Week,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	out := make([]paymentResponse, 0, len(list))
	for _, p := range list {
		out = append(out, paymentResponse{
			ID:             p.ID.String(),
			EmployeeID:     p.EmployeeID.String(),
			EventType:      p.EventType,
			SubjectLabel:   p.SubjectLabel,
			SourceRecordID: p.SourceRecordID,
			Amount:         money.NewAmount(p.Amount),
			Week:           p.Week,
			CreatedAt:      p.CreatedAt,
		})
	}
	httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *IncentiveController) Summary(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var q summaryQuery
	if err := httpapi.DecodeQuery(r, &q); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	summaries, err := c.payments.WeeklySummary(r.Context(), actor, q.Week)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	out := make([]summaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, summaryResponse{
			EmployeeID: s.EmployeeID.String(),
			Week:       s.Week,
			Count:      s.Count,
			Total:      money.NewAmount(s.Total),
			ByType:     s.ByType,
		})
	}
	httpapi.WriteJSON(w, http.StatusOK, out)
}
