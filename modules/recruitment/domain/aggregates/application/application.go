// Package application models the recruitment pipeline an applicant moves
// through: eligibility criteria, interview questions, then onboarding.
package application

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/pkg/serrors"
)

type Status string

const (
	StatusCriteria   Status = "CRITERIA"
	StatusQuestions  Status = "QUESTIONS"
	StatusOnboarding Status = "ONBOARDING"
	StatusCompleted  Status = "COMPLETED"
	StatusRejected   Status = "REJECTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusCriteria, StatusQuestions, StatusOnboarding, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// Step is the 1-based pipeline position. Rejected applications report 0.
func (s Status) Step() int {
	switch s {
	case StatusCriteria:
		return 1
	case StatusQuestions:
		return 2
	case StatusOnboarding:
		return 3
	case StatusCompleted:
		return 4
	}
	return 0
}

var (
	ErrNotFound               = serrors.ErrNotFound.WithMessage("application not found")
	ErrInvalidStateTransition = serrors.NewError("INVALID_STATE_TRANSITION", "invalid state transition", "Errors.InvalidStateTransition")
	ErrBlacklisted            = serrors.NewError("BLACKLISTED", "applicant is blacklisted", "Errors.Blacklisted")
	ErrAlreadyEmployed        = serrors.NewError("ALREADY_EMPLOYED", "identity already belongs to an employee", "Errors.AlreadyEmployed")
)

type Application struct {
	id                 uuid.UUID
	tenantID           uuid.UUID
	applicantName      string
	discordID          string
	discordName        string
	notes              string
	status             Status
	criteria           map[uuid.UUID]bool
	answeredQuestions  []uuid.UUID
	completedChecklist []uuid.UUID
	idCardPath         string
	inviteURL          string
	rejectionReason    string
	employeeID         uuid.UUID
	processedBy        uuid.UUID
	processedAt        *time.Time
	createdAt          time.Time
	updatedAt          time.Time
}

func New(tenantID uuid.UUID, applicantName, discordID, notes string) Application {
	now := time.Now()
	return Application{
		id:            uuid.New(),
		tenantID:      tenantID,
		applicantName: strings.TrimSpace(applicantName),
		discordID:     strings.TrimSpace(discordID),
		notes:         strings.TrimSpace(notes),
		status:        StatusCriteria,
		criteria:      map[uuid.UUID]bool{},
		createdAt:     now,
		updatedAt:     now,
	}
}

// State is the flat persisted form of an Application.
type State struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	ApplicantName      string
	DiscordID          string
	DiscordName        string
	Notes              string
	Status             Status
	Criteria           map[uuid.UUID]bool
	AnsweredQuestions  []uuid.UUID
	CompletedChecklist []uuid.UUID
	IDCardPath         string
	InviteURL          string
	RejectionReason    string
	EmployeeID         uuid.UUID
	ProcessedBy        uuid.UUID
	ProcessedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func Hydrate(s State) Application {
	if s.Criteria == nil {
		s.Criteria = map[uuid.UUID]bool{}
	}
	return Application{
		id:                 s.ID,
		tenantID:           s.TenantID,
		applicantName:      s.ApplicantName,
		discordID:          s.DiscordID,
		discordName:        s.DiscordName,
		notes:              s.Notes,
		status:             s.Status,
		criteria:           s.Criteria,
		answeredQuestions:  s.AnsweredQuestions,
		completedChecklist: s.CompletedChecklist,
		idCardPath:         s.IDCardPath,
		inviteURL:          s.InviteURL,
		rejectionReason:    s.RejectionReason,
		employeeID:         s.EmployeeID,
		processedBy:        s.ProcessedBy,
		processedAt:        s.ProcessedAt,
		createdAt:          s.CreatedAt,
		updatedAt:          s.UpdatedAt,
	}
}

func (a Application) State() State {
	return State{
		ID:                 a.id,
		TenantID:           a.tenantID,
		ApplicantName:      a.applicantName,
		DiscordID:          a.discordID,
		DiscordName:        a.discordName,
		Notes:              a.notes,
		Status:             a.status,
		Criteria:           a.criteria,
		AnsweredQuestions:  a.answeredQuestions,
		CompletedChecklist: a.completedChecklist,
		IDCardPath:         a.idCardPath,
		InviteURL:          a.inviteURL,
		RejectionReason:    a.rejectionReason,
		EmployeeID:         a.employeeID,
		ProcessedBy:        a.processedBy,
		ProcessedAt:        a.processedAt,
		CreatedAt:          a.createdAt,
		UpdatedAt:          a.updatedAt,
	}
}

func (a Application) ID() uuid.UUID                   { return a.id }
func (a Application) TenantID() uuid.UUID             { return a.tenantID }
func (a Application) ApplicantName() string           { return a.applicantName }
func (a Application) DiscordID() string               { return a.discordID }
func (a Application) DiscordName() string             { return a.discordName }
func (a Application) Notes() string                   { return a.notes }
func (a Application) Status() Status                  { return a.status }
func (a Application) Step() int                       { return a.status.Step() }
func (a Application) Criteria() map[uuid.UUID]bool    { return a.criteria }
func (a Application) AnsweredQuestions() []uuid.UUID  { return a.answeredQuestions }
func (a Application) CompletedChecklist() []uuid.UUID { return a.completedChecklist }
func (a Application) IDCardPath() string              { return a.idCardPath }
func (a Application) InviteURL() string               { return a.inviteURL }
func (a Application) RejectionReason() string         { return a.rejectionReason }
func (a Application) EmployeeID() uuid.UUID           { return a.employeeID }
func (a Application) ProcessedBy() uuid.UUID          { return a.processedBy }
func (a Application) ProcessedAt() *time.Time         { return a.processedAt }
func (a Application) CreatedAt() time.Time            { return a.createdAt }
func (a Application) UpdatedAt() time.Time            { return a.updatedAt }

func (a Application) require(s Status) error {
	if a.status != s {
		return ErrInvalidStateTransition.WithMessage("application is %s, expected %s", a.status, s)
	}
	return nil
}

func (a Application) touched() Application {
	a.updatedAt = time.Now()
	return a
}
