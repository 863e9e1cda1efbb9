package controllers

import (
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	recapp "github.com/iota-uz/precinct/modules/recruitment/domain/aggregates/application"
	"github.com/iota-uz/precinct/modules/recruitment/presentation/mappers"
	"github.com/iota-uz/precinct/modules/recruitment/presentation/viewmodels"
	"github.com/iota-uz/precinct/modules/recruitment/services"
	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/httpapi"
)

type applicationListQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=CRITERIA QUESTIONS ONBOARDING COMPLETED REJECTED"`
	Query  string `query:"q" validate:"max=100"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

type criteriaRequest struct {
	Values map[uuid.UUID]bool `json:"values"`
}

type questionsRequest struct {
	Answered []uuid.UUID `json:"answered"`
}

type ApplicationController struct {
	applications *services.ApplicationService
}

func NewApplicationController(app application.Application) application.Controller {
	return &ApplicationController{
		applications: app.Service(services.ApplicationService{}).(*services.ApplicationService),
	}
}

func (c *ApplicationController) Key() string {
	return "/api/v1/recruitment/applications"
}

func (c *ApplicationController) Register(r *mux.Router) {
	router := r.PathPrefix(c.Key()).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/{id}/criteria", c.SubmitCriteria).Methods(http.MethodPost)
	router.HandleFunc("/{id}/questions", c.SubmitQuestions).Methods(http.MethodPost)
	router.HandleFunc("/{id}/onboarding", c.SubmitOnboarding).Methods(http.MethodPost)
	router.HandleFunc("/{id}/id-card", c.UploadIDCard).Methods(http.MethodPut)
	router.HandleFunc("/{id}/id-card", c.IDCard).Methods(http.MethodGet)
	router.HandleFunc("/{id}/invite", c.CreateInvite).Methods(http.MethodPost)
	router.HandleFunc("/{id}/complete", c.Complete).Methods(http.MethodPost)
	router.HandleFunc("/{id}/reject", c.Reject).Methods(http.MethodPost)
}

func (c *ApplicationController) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var q applicationListQuery
	if err := httpapi.DecodeQuery(r, &q); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	list, total, err := c.applications.GetPaginated(r.Context(), actor, &recapp.FindParams{
		Status: recapp.Status(q.Status),
		Query:  q.Query,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	page := viewmodels.ApplicationPage{Items: make([]viewmodels.Application, 0, len(list)), Total: total}
	for _, a := range list {
		page.Items = append(page.Items, mappers.ApplicationToViewModel(a))
	}
	httpapi.WriteJSON(w, http.StatusOK, page)
}

func (c *ApplicationController) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var dto services.CreateApplicationDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	a, err := c.applications.Create(r.Context(), actor, dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, mappers.ApplicationToViewModel(a))
}

func (c *ApplicationController) Get(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	a, err := c.applications.GetByID(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, mappers.ApplicationToViewModel(a))
}

func (c *ApplicationController) Delete(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	if err := c.applications.Delete(r.Context(), actor, id); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *ApplicationController) SubmitCriteria(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var req criteriaRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	a, res, err := c.applications.SubmitCriteria(r.Context(), actor, id, req.Values)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, viewmodels.CriteriaResult{Application: mappers.ApplicationToViewModel(a), Result: res})
}

func (c *ApplicationController) SubmitQuestions(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var req questionsRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	a, res, err := c.applications.SubmitQuestions(r.Context(), actor, id, req.Answered)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, viewmodels.QuestionsResult{Application: mappers.ApplicationToViewModel(a), Result: res})
}

func (c *ApplicationController) SubmitOnboarding(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var dto services.OnboardingDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	a, res, err := c.applications.SubmitOnboarding(r.Context(), actor, id, dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, viewmodels.OnboardingResult{Application: mappers.ApplicationToViewModel(a), Result: res})
}

// UploadIDCard takes the document as the raw request body. Size and type
// limits are enforced by the blob store.
func (c *ApplicationController) UploadIDCard(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	a, err := c.applications.UploadIDCard(r.Context(), actor, id, r.Header.Get("X-Filename"), r.Body)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, mappers.ApplicationToViewModel(a))
}

func (c *ApplicationController) IDCard(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	data, err := c.applications.IDCard(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (c *ApplicationController) CreateInvite(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	a, err := c.applications.CreateInvite(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, mappers.ApplicationToViewModel(a))
}

func (c *ApplicationController) Complete(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	a, err := c.applications.Complete(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, mappers.ApplicationToViewModel(a))
}

func (c *ApplicationController) Reject(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var dto services.RejectDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	a, err := c.applications.Reject(r.Context(), actor, id, dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, mappers.ApplicationToViewModel(a))
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
