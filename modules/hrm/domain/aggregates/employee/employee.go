package employee

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/modules/hrm/domain/rank"
	"github.com/iota-uz/precinct/pkg/serrors"
)

type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusInactive   Status = "INACTIVE"
	StatusSuspended  Status = "SUSPENDED"
	StatusOnLeave    Status = "ON_LEAVE"
	StatusTerminated Status = "TERMINATED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended, StatusOnLeave, StatusTerminated:
		return true
	}
	return false
}

var (
	ErrNotFound               = serrors.ErrNotFound.WithMessage("employee not found")
	ErrAlreadyEmployed        = serrors.NewError("ALREADY_EMPLOYED", "identity already belongs to an employee", "Errors.AlreadyEmployed")
	ErrInvalidStateTransition = serrors.NewError("INVALID_STATE_TRANSITION", "invalid state transition", "Errors.InvalidStateTransition")
)

// Employee is a department member. Rank changes go through the rank engine;
// termination is a status, records are never deleted.
type Employee struct {
	id           uuid.UUID
	tenantID     uuid.UUID
	discordID    string
	displayName  string
	rankLevel    int
	badgeNumber  string
	status       Status
	hiredAt      time.Time
	terminatedAt *time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

// New creates an entry level employee holding badge.
func New(tenantID uuid.UUID, discordID, displayName, badge string) Employee {
	now := time.Now()
	return Employee{
		id:          uuid.New(),
		tenantID:    tenantID,
		discordID:   strings.TrimSpace(discordID),
		displayName: strings.TrimSpace(displayName),
		rankLevel:   rank.EntryLevel,
		badgeNumber: badge,
		status:      StatusActive,
		hiredAt:     now,
		createdAt:   now,
		updatedAt:   now,
	}
}

func Hydrate(
	id, tenantID uuid.UUID,
	discordID, displayName string,
	rankLevel int,
	badgeNumber string,
	status Status,
	hiredAt time.Time,
	terminatedAt *time.Time,
	createdAt, updatedAt time.Time,
) Employee {
	return Employee{
		id:           id,
		tenantID:     tenantID,
		discordID:    discordID,
		displayName:  displayName,
		rankLevel:    rankLevel,
		badgeNumber:  badgeNumber,
		status:       status,
		hiredAt:      hiredAt,
		terminatedAt: terminatedAt,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (e Employee) ID() uuid.UUID            { return e.id }
func (e Employee) TenantID() uuid.UUID      { return e.tenantID }
func (e Employee) DiscordID() string        { return e.discordID }
func (e Employee) DisplayName() string      { return e.displayName }
func (e Employee) RankLevel() int           { return e.rankLevel }
func (e Employee) RankName() string         { return rank.Name(e.rankLevel) }
func (e Employee) BadgeNumber() string      { return e.badgeNumber }
func (e Employee) Status() Status           { return e.status }
func (e Employee) HiredAt() time.Time       { return e.hiredAt }
func (e Employee) TerminatedAt() *time.Time { return e.terminatedAt }
func (e Employee) CreatedAt() time.Time     { return e.createdAt }
func (e Employee) UpdatedAt() time.Time     { return e.updatedAt }
func (e Employee) IsTerminated() bool       { return e.status == StatusTerminated }

// ProfileName is the name pushed to the external platform.
func (e Employee) ProfileName() string {
	return rank.DisplayName(e.badgeNumber, e.displayName)
}

func (e Employee) Team() rank.Team {
	t, _ := rank.TeamOf(e.rankLevel)
	return t
}

// ApplyRank moves the employee to t.NewLevel. badge replaces the current
// badge when non-empty.
func (e Employee) ApplyRank(t rank.Transition, badge string) Employee {
	e.rankLevel = t.NewLevel
	if badge != "" {
		e.badgeNumber = badge
	}
	e.updatedAt = time.Now()
	return e
}

// SetStatus changes a non-terminal status. Use Terminate for TERMINATED.
func (e Employee) SetStatus(s Status) (Employee, error) {
	if !s.Valid() {
		return e, serrors.ValidationErrors{"status": "unknown status"}.AsError()
	}
	if e.IsTerminated() || s == StatusTerminated {
		return e, ErrInvalidStateTransition.WithMessage("cannot move employee from %s to %s", e.status, s)
	}
	e.status = s
	e.updatedAt = time.Now()
	return e, nil
}

// Terminate is terminal. The badge is released so the number can be reissued.
func (e Employee) Terminate(at time.Time) (Employee, error) {
	if e.IsTerminated() {
		return e, ErrInvalidStateTransition.WithMessage("employee is already terminated")
	}
	e.status = StatusTerminated
	e.badgeNumber = ""
	e.terminatedAt = &at
	e.updatedAt = at
	return e, nil
}
