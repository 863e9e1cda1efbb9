// Package uprank models requests to advance a trainee to the rank their
// academy category qualifies them for.
package uprank

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/modules/hrm/domain/rank"
	"github.com/iota-uz/precinct/pkg/serrors"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

var (
	ErrNotFound               = serrors.ErrNotFound.WithMessage("uprank request not found")
	ErrNotEligible            = serrors.NewError("NOT_ELIGIBLE", "employee is not eligible for this rank", "Errors.NotEligible")
	ErrDuplicateRequest       = serrors.NewError("DUPLICATE_REQUEST", "a pending uprank request already exists", "Errors.DuplicateRequest")
	ErrInvalidStateTransition = serrors.NewError("INVALID_STATE_TRANSITION", "invalid state transition", "Errors.InvalidStateTransition")
)

type Request struct {
	ID              uuid.UUID  `json:"id"`
	TenantID        uuid.UUID  `json:"-"`
	EmployeeID      uuid.UUID  `json:"employee_id"`
	CurrentLevel    int        `json:"current_level"`
	TargetLevel     int        `json:"target_level"`
	Justification   string     `json:"justification"`
	Achievements    string     `json:"achievements,omitempty"`
	Status          Status     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	RequestedBy     uuid.UUID  `json:"requested_by"`
	ProcessedBy     uuid.UUID  `json:"processed_by,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// New builds a pending request whose justification lists the completed
// module names.
func New(tenantID, employeeID uuid.UUID, currentLevel, targetLevel int, completed []string, achievements string, by uuid.UUID) Request {
	return Request{
		ID:            uuid.New(),
		TenantID:      tenantID,
		EmployeeID:    employeeID,
		CurrentLevel:  currentLevel,
		TargetLevel:   targetLevel,
		Justification: Justification(targetLevel, completed),
		Achievements:  strings.TrimSpace(achievements),
		Status:        StatusPending,
		RequestedBy:   by,
		CreatedAt:     time.Now(),
	}
}

func Justification(targetLevel int, completed []string) string {
	return fmt.Sprintf("Completed all academy modules for %s: %s.", rank.Name(targetLevel), strings.Join(completed, ", "))
}

func (r Request) CurrentRank() string { return rank.Name(r.CurrentLevel) }
func (r Request) TargetRank() string  { return rank.Name(r.TargetLevel) }

func (r Request) Approve(by uuid.UUID, at time.Time) (Request, error) {
	if r.Status != StatusPending {
		return r, ErrInvalidStateTransition.WithMessage("request is %s", r.Status)
	}
	r.Status = StatusApproved
	r.ProcessedBy = by
	r.ProcessedAt = &at
	return r, nil
}

func (r Request) Reject(reason string, by uuid.UUID, at time.Time) (Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return r, serrors.ValidationErrors{"reason": "is required"}.AsError()
	}
	if r.Status != StatusPending {
		return r, ErrInvalidStateTransition.WithMessage("request is %s", r.Status)
	}
	r.Status = StatusRejected
	r.RejectionReason = reason
	r.ProcessedBy = by
	r.ProcessedAt = &at
	return r, nil
}

type FindParams struct {
	EmployeeID uuid.UUID
	Status     Status
	Limit      int
	Offset     int
}

type Repository interface {
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (Request, error)
	HasPending(ctx context.Context, employeeID uuid.UUID) (bool, error)
	List(ctx context.Context, params *FindParams) ([]Request, error)
	// Create returns ErrDuplicateRequest when a pending request exists.
	Create(ctx context.Context, r Request) error
	Update(ctx context.Context, r Request) error
}
