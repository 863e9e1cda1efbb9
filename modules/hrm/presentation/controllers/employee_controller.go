package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/modules/hrm/presentation/mappers"
	"github.com/iota-uz/precinct/modules/hrm/presentation/viewmodels"
	"github.com/iota-uz/precinct/modules/hrm/services"
	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/httpapi"
)

type employeeListQuery struct {
	Status    string `query:"status" validate:"omitempty,oneof=ACTIVE INACTIVE SUSPENDED ON_LEAVE TERMINATED"`
	RankLevel int    `query:"rank_level" validate:"omitempty,min=1,max=17"`
	Query     string `query:"q" validate:"max=100"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset    int    `query:"offset" validate:"omitempty,min=0"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE INACTIVE SUSPENDED ON_LEAVE"`
}

type terminateRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type unitsRequest struct {
	RoleIDs []uuid.UUID `json:"role_ids"`
}

type EmployeeController struct {
	employees *services.EmployeeService
	ranks     *services.RankService
	units     *services.UnitRoleService
	roster    *services.RosterService
	basePath  string
}

func NewEmployeeController(app application.Application) application.Controller {
	return &EmployeeController{
		employees: app.Service(services.EmployeeService{}).(*services.EmployeeService),
		ranks:     app.Service(services.RankService{}).(*services.RankService),
		units:     app.Service(services.UnitRoleService{}).(*services.UnitRoleService),
		roster:    app.Service(services.RosterService{}).(*services.RosterService),
		basePath:  "/api/v1/hrm/employees",
	}
}

func (c *EmployeeController) Key() string {
	return c.basePath
}

func (c *EmployeeController) Register(r *mux.Router) {
	r.HandleFunc("/api/v1/hrm/roster", c.Roster).Methods(http.MethodGet)

	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}/promote", c.Promote).Methods(http.MethodPost)
	router.HandleFunc("/{id}/demote", c.Demote).Methods(http.MethodPost)
	router.HandleFunc("/{id}/status", c.SetStatus).Methods(http.MethodPut)
	router.HandleFunc("/{id}/terminate", c.Terminate).Methods(http.MethodPost)
	router.HandleFunc("/{id}/units", c.Units).Methods(http.MethodGet)
	router.HandleFunc("/{id}/units", c.SetUnits).Methods(http.MethodPut)
}

func (c *EmployeeController) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var q employeeListQuery
	if err := httpapi.DecodeQuery(r, &q); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	list, total, err := c.employees.GetPaginated(r.Context(), actor, &employee.FindParams{
		Status:    employee.Status(q.Status),
		RankLevel: q.RankLevel,
		Query:     q.Query,
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	page := viewmodels.EmployeePage{Items: make([]viewmodels.Employee, 0, len(list)), Total: total}
	for _, e := range list {
		page.Items = append(page.Items, mappers.EmployeeToViewModel(e))
	}
	httpapi.WriteJSON(w, http.StatusOK, page)
}

func (c *EmployeeController) Get(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	e, err := c.employees.GetByID(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	vm := mappers.EmployeeToViewModel(e)
	if units, err := c.units.EmployeeUnits(r.Context(), actor, id); err == nil {
		vm.Units = units
	}
	httpapi.WriteJSON(w, http.StatusOK, vm)
}

func (c *EmployeeController) Promote(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	res, err := c.ranks.Promote(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, res)
}

func (c *EmployeeController) Demote(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	res, err := c.ranks.Demote(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, res)
}

func (c *EmployeeController) SetStatus(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	e, err := c.employees.SetStatus(r.Context(), actor, id, employee.Status(req.Status))
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, mappers.EmployeeToViewModel(e))
}

func (c *EmployeeController) Terminate(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var req terminateRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	e, err := c.employees.Terminate(r.Context(), actor, id, req.Reason)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, mappers.EmployeeToViewModel(e))
}

func (c *EmployeeController) Units(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	units, err := c.units.EmployeeUnits(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, units)
}

func (c *EmployeeController) SetUnits(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var req unitsRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	res, err := c.units.SetUnitRoles(r.Context(), actor, id, req.RoleIDs)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, res)
}

func actorAndID(w http.ResponseWriter, r *http.Request) (authz.Actor, uuid.UUID, bool) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return actor, uuid.Nil, false
	}
	id, err := httpapi.PathUUID(r, "id")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return actor, uuid.Nil, false
	}
	return actor, id, true
}

func (c *EmployeeController) Roster(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	roster, err := c.roster.Roster(r.Context(), actor)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, roster)
}
