package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/precinct/modules/finance/domain/aggregates/treasury"
	"github.com/iota-uz/precinct/modules/finance/presentation/viewmodels"
	"github.com/iota-uz/precinct/modules/finance/services"
	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/httpapi"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type TreasuryController struct {
	treasury *services.TreasuryService
	exports  *services.ExportService
}

func NewTreasuryController(app application.Application) application.Controller {
	return &TreasuryController{
		treasury: app.Service(services.TreasuryService{}).(*services.TreasuryService),
		exports:  app.Service(services.ExportService{}).(*services.ExportService),
	}
}

func (c *TreasuryController) Key() string {
	return "/api/v1/finance/treasury"
}

func (c *TreasuryController) Register(r *mux.Router) {
	router := r.PathPrefix(c.Key()).Subrouter()
	router.HandleFunc("", c.Balances).Methods(http.MethodGet)
	router.HandleFunc("/deposits", c.Deposit).Methods(http.MethodPost)
	router.HandleFunc("/withdrawals", c.Withdraw).Methods(http.MethodPost)
	router.HandleFunc("/transactions", c.History).Methods(http.MethodGet)
	router.HandleFunc("/transactions/export", c.Export).Methods(http.MethodGet)
	router.HandleFunc("/summary", c.Summary).Methods(http.MethodGet)
	router.HandleFunc("/verify", c.Verify).Methods(http.MethodGet)
}

func (c *TreasuryController) Balances(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	b, err := c.treasury.Balances(r.Context(), actor)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, viewmodels.BalancesToViewModel(b))
}

func (c *TreasuryController) Deposit(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var dto services.MovementDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	t, err := c.treasury.Deposit(r.Context(), actor, dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, viewmodels.TransactionToViewModel(t))
}

func (c *TreasuryController) Withdraw(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var dto services.MovementDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	t, err := c.treasury.Withdraw(r.Context(), actor, dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, viewmodels.TransactionToViewModel(t))
}

type historyQuery struct {
	Pool    string     `query:"pool" validate:"omitempty,oneof=REGULAR UNTRACKED"`
	Kind    string     `query:"kind" validate:"omitempty,oneof=DEPOSIT WITHDRAWAL"`
	ActorID uuid.UUID  `query:"actor_id"`
	From    *time.Time `query:"from"`
	To      *time.Time `query:"to"`
	Limit   int        `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset  int        `query:"offset" validate:"omitempty,min=0"`
}

func (q historyQuery) params() treasury.FindParams {
	return treasury.FindParams{
		Pool:    treasury.Pool(q.Pool),
		Kind:    treasury.Kind(q.Kind),
		ActorID: q.ActorID,
		From:    q.From,
		To:      q.To,
		Limit:   q.Limit,
		Offset:  q.Offset,
	}
}

func (c *TreasuryController) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var q historyQuery
	if err := httpapi.DecodeQuery(r, &q); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	params := q.params()
	if params.Limit == 0 {
		params.Limit = 20
	}
	list, total, err := c.treasury.History(r.Context(), actor, &params)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, viewmodels.TransactionsToViewModel(list, total))
}

func (c *TreasuryController) Export(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var q historyQuery
	if err := httpapi.DecodeQuery(r, &q); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if _, err := c.exports.ExportXLSX(r.Context(), actor, q.params(), &buf); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	name := fmt.Sprintf("treasury-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

type summaryQuery struct {
	From time.Time `query:"from" validate:"required"`
	To   time.Time `query:"to" validate:"required"`
}

func (c *TreasuryController) Summary(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var q summaryQuery
	if err := httpapi.DecodeQuery(r, &q); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	rows, err := c.treasury.MonthlySummary(r.Context(), actor, q.From, q.To)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, rows)
}

func (c *TreasuryController) Verify(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	checks, err := c.treasury.VerifyLedger(r.Context(), actor)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"consistent": services.Consistent(checks),
		"pools":      viewmodels.VerificationsToViewModel(checks),
	})
}
