package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/precinct/modules/core/domain/entities/assignment"
	"github.com/iota-uz/precinct/modules/core/services"
	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/httpapi"
)

type grantRequest struct {
	DiscordID string `json:"discord_id" validate:"required,max=32"`
	Role      string `json:"role" validate:"required,max=64"`
}

type assignmentResponse struct {
	DiscordID string    `json:"discord_id"`
	Role      string    `json:"role"`
	GrantedBy string    `json:"granted_by"`
	GrantedAt time.Time `json:"granted_at"`
}

type meResponse struct {
	EmployeeID  string             `json:"employee_id,omitempty"`
	DiscordID   string             `json:"discord_id"`
	DisplayName string             `json:"display_name"`
	Roles       []string           `json:"roles"`
	Permissions []authz.Permission `json:"permissions"`
	Mode        authz.Mode         `json:"mode"`
}

type RoleController struct {
	roles    *services.RoleService
	basePath string
}

func NewRoleController(app application.Application) application.Controller {
	return &RoleController{
		roles:    app.Service(services.RoleService{}).(*services.RoleService),
		basePath: "/api/v1/core",
	}
}

func (c *RoleController) Key() string {
	return c.basePath
}

func (c *RoleController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/me", c.Me).Methods(http.MethodGet)
	router.HandleFunc("/roles", c.List).Methods(http.MethodGet)
	router.HandleFunc("/roles", c.Grant).Methods(http.MethodPost)
	router.HandleFunc("/roles/{discord_id}/{role}", c.Revoke).Methods(http.MethodDelete)
}

func (c *RoleController) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	resp := meResponse{
		DiscordID:   actor.DiscordID,
		DisplayName: actor.DisplayName,
		Roles:       actor.Roles,
		Permissions: actor.Capabilities.List(),
		Mode:        actor.Mode,
	}
	if resp.Roles == nil {
		resp.Roles = []string{}
	}
	if actor.ID != uuid.Nil {
		resp.EmployeeID = actor.ID.String()
	}
	httpapi.WriteJSON(w, http.StatusOK, resp)
}

func (c *RoleController) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	list, err := c.roles.List(r.Context(), actor)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	out := make([]assignmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAssignmentResponse(a))
	}
	httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *RoleController) Grant(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var req grantRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	a, err := c.roles.Grant(r.Context(), actor, req.DiscordID, req.Role)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toAssignmentResponse(a))
}

func (c *RoleController) Revoke(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	if err := c.roles.Revoke(r.Context(), actor, vars["discord_id"], vars["role"]); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toAssignmentResponse(a assignment.Assignment) assignmentResponse {
	return assignmentResponse{
		DiscordID: a.DiscordID,
		Role:      a.Role,
		GrantedBy: a.GrantedBy.String(),
		GrantedAt: a.GrantedAt,
	}
}
