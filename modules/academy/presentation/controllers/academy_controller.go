package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/precinct/modules/academy/domain/uprank"
	"github.com/iota-uz/precinct/modules/academy/services"
	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/httpapi"
)

type AcademyController struct {
	academy *services.AcademyService
	upranks *services.UprankService
	exams   *services.ExamService
}

func NewAcademyController(app application.Application) application.Controller {
	return &AcademyController{
		academy: app.Service(services.AcademyService{}).(*services.AcademyService),
		upranks: app.Service(services.UprankService{}).(*services.UprankService),
		exams:   app.Service(services.ExamService{}).(*services.ExamService),
	}
}

func (c *AcademyController) Key() string {
	return "/api/v1/academy"
}

func (c *AcademyController) Register(r *mux.Router) {
	router := r.PathPrefix(c.Key()).Subrouter()
	router.HandleFunc("/modules", c.Modules).Methods(http.MethodGet)
	router.HandleFunc("/modules", c.CreateModule).Methods(http.MethodPost)
	router.HandleFunc("/modules/{id}", c.UpdateModule).Methods(http.MethodPut)

	router.HandleFunc("/employees/{id}/progress", c.Progress).Methods(http.MethodGet)
	router.HandleFunc("/employees/{id}/progress/{module}", c.Toggle).Methods(http.MethodPost)
	router.HandleFunc("/employees/{id}/eligibility", c.Eligibility).Methods(http.MethodGet)
	router.HandleFunc("/employees/{id}/upranks", c.RequestUprank).Methods(http.MethodPost)

	router.HandleFunc("/upranks", c.ListUpranks).Methods(http.MethodGet)
	router.HandleFunc("/upranks/{id}/approve", c.ApproveUprank).Methods(http.MethodPost)
	router.HandleFunc("/upranks/{id}/reject", c.RejectUprank).Methods(http.MethodPost)

	router.HandleFunc("/exams", c.ListExams).Methods(http.MethodGet)
	router.HandleFunc("/exams", c.ConductExam).Methods(http.MethodPost)
}

func (c *AcademyController) Modules(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	mods, err := c.academy.Modules(r.Context(), actor)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, mods)
}

func (c *AcademyController) CreateModule(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var dto services.ModuleDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	m, err := c.academy.CreateModule(r.Context(), actor, dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, m)
}

func (c *AcademyController) UpdateModule(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var dto services.ModuleDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	m, err := c.academy.UpdateModule(r.Context(), actor, id, dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, m)
}

func (c *AcademyController) Progress(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	rows, err := c.academy.Progress(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, rows)
}

func (c *AcademyController) Toggle(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	moduleID, err := httpapi.PathUUID(r, "module")
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	p, err := c.academy.ToggleModuleCompletion(r.Context(), actor, id, moduleID)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, p)
}

func (c *AcademyController) Eligibility(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	elig, err := c.academy.ComputeEligibility(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, elig)
}

func (c *AcademyController) RequestUprank(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var dto services.UprankRequestDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	req, err := c.upranks.Request(r.Context(), actor, id, dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, req)
}

type uprankListQuery struct {
	EmployeeID uuid.UUID `query:"employee_id"`
	Status     string    `query:"status" validate:"omitempty,oneof=PENDING APPROVED REJECTED"`
	Limit      int       `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset     int       `query:"offset" validate:"omitempty,min=0"`
}

func (c *AcademyController) ListUpranks(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var q uprankListQuery
	if err := httpapi.DecodeQuery(r, &q); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	list, err := c.upranks.List(r.Context(), actor, &uprank.FindParams{
		EmployeeID: q.EmployeeID,
		Status:     uprank.Status(q.Status),
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, list)
}

func (c *AcademyController) ApproveUprank(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	res, err := c.upranks.Approve(r.Context(), actor, id)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, res)
}

type rejectBody struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

func (c *AcademyController) RejectUprank(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var body rejectBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	req, err := c.upranks.Reject(r.Context(), actor, id, body.Reason)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, req)
}

type examListQuery struct {
	EmployeeID uuid.UUID `query:"employee_id"`
}

func (c *AcademyController) ListExams(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var q examListQuery
	if err := httpapi.DecodeQuery(r, &q); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	list, err := c.exams.List(r.Context(), actor, q.EmployeeID)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, list)
}

func (c *AcademyController) ConductExam(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpapi.Actor(w, r)
	if !ok {
		return
	}
	var dto services.ExamDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	e, err := c.exams.ConductExam(r.Context(), actor, dto)
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, e)
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
