package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/precinct/modules/recruitment/domain/entities/config"
	"github.com/iota-uz/precinct/modules/recruitment/services"
	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/httpapi"
)

// SettingsController exposes criteria, questions, the onboarding checklist
// and the blacklist.
type SettingsController struct {
	settings *services.ConfigService
}

func NewSettingsController(app application.Application) application.Controller {
	return &SettingsController{
		settings: app.Service(services.ConfigService{}).(*services.ConfigService),
	}
}

func (c *SettingsController) Key() string {
	return "/api/v1/recruitment/settings"
}

func (c *SettingsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.Key()).Subrouter()
	router.HandleFunc("/blacklist", c.Blacklist).Methods(http.MethodGet)
	router.HandleFunc("/blacklist/{id}", c.Unblacklist).Methods(http.MethodDelete)
	router.HandleFunc("/{kind:criterion|question|checklist}", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{kind:criterion|question|checklist}", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/items/{id}", c.Update).Methods(http.MethodPut)
	router.HandleFunc("/items/{id}", c.Delete).Methods(http.MethodDelete)
}

func (c *SettingsController) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	items, err := c.settings.List(r.Context(), actor, config.Kind(mux.Vars(r)["kind"]))
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, items)
}

func (c *SettingsController) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var dto services.ItemDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	it, err := c.settings.Create(r.Context(), actor, config.Kind(mux.Vars(r)["kind"]), dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, it)
}

func (c *SettingsController) Update(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var dto services.ItemDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	it, err := c.settings.Update(r.Context(), actor, id, dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, it)
}

func (c *SettingsController) Delete(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	if err := c.settings.Delete(r.Context(), actor, id); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *SettingsController) Blacklist(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	entries, err := c.settings.Blacklist(r.Context(), actor)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, entries)
}

func (c *SettingsController) Unblacklist(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	if err := c.settings.Unblacklist(r.Context(), actor, id); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
