package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/sanction"
	"github.com/iota-uz/precinct/modules/hrm/presentation/mappers"
	"github.com/iota-uz/precinct/modules/hrm/presentation/viewmodels"
	"github.com/iota-uz/precinct/modules/hrm/services"
	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/httpapi"
)

type sanctionListQuery struct {
	EmployeeID uuid.UUID `query:"employee_id"`
	Status     string    `query:"status" validate:"omitempty,oneof=ACTIVE REVOKED EXPIRED COMPLETED"`
	Limit      int       `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset     int       `query:"offset" validate:"omitempty,min=0"`
}

type SanctionController struct {
	sanctions *services.SanctionService
}

func NewSanctionController(app application.Application) application.Controller {
	return &SanctionController{
		sanctions: app.Service(services.SanctionService{}).(*services.SanctionService),
	}
}

func (c *SanctionController) Key() string {
	return "/api/v1/hrm/sanctions"
}

func (c *SanctionController) Register(r *mux.Router) {
	r.HandleFunc("/api/v1/hrm/employees/{id}/sanctions", c.Create).Methods(http.MethodPost)

	router := r.PathPrefix(c.Key()).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}/components/{component}/toggle", c.Toggle).Methods(http.MethodPost)
	router.HandleFunc("/{id}/revoke", c.Revoke).Methods(http.MethodPost)
}

func (c *SanctionController) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var q sanctionListQuery
	if err := httpapi.DecodeQuery(r, &q); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	params := &sanction.FindParams{
		EmployeeID: q.EmployeeID,
		Status:     sanction.Status(q.Status),
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	list, err := c.sanctions.List(r.Context(), actor, params)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	now := time.Now()
	out := make([]viewmodels.Sanction, 0, len(list))
	for _, s := range list {
		out = append(out, mappers.SanctionToViewModel(s, now))
	}
	httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *SanctionController) Get(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	s, err := c.sanctions.GetByID(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, mappers.SanctionToViewModel(s, time.Now()))
}

func (c *SanctionController) Create(w http.ResponseWriter, r *http.Request) {
	actor, employeeID, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var dto services.CreateSanctionDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	s, err := c.sanctions.Create(r.Context(), actor, employeeID, dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, mappers.SanctionToViewModel(s, time.Now()))
}

func (c *SanctionController) Toggle(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	s, err := c.sanctions.ToggleComponent(r.Context(), actor, id, sanction.Component(mux.Vars(r)["component"]))
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, mappers.SanctionToViewModel(s, time.Now()))
}

func (c *SanctionController) Revoke(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	s, err := c.sanctions.Revoke(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, mappers.SanctionToViewModel(s, time.Now()))
}
