package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/precinct/modules/hrm/services"
	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/httpapi"
)

type UnitRoleController struct {
	units    *services.UnitRoleService
	basePath string
}

func NewUnitRoleController(app application.Application) application.Controller {
	return &UnitRoleController{
		units:    app.Service(services.UnitRoleService{}).(*services.UnitRoleService),
		basePath: "/api/v1/hrm/unit-roles",
	}
}

func (c *UnitRoleController) Key() string {
	return c.basePath
}

func (c *UnitRoleController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
}

func (c *UnitRoleController) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	units, err := c.units.Catalog(r.Context(), actor)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, units)
}

func (c *UnitRoleController) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var dto services.CreateUnitRoleDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	created, err := c.units.CreateUnitRole(r.Context(), actor, dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, created)
}

func (c *UnitRoleController) Delete(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	if err := c.units.DeleteUnitRole(r.Context(), actor, id); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
