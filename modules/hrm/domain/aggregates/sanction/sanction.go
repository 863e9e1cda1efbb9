package sanction

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/precinct/pkg/serrors"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusRevoked   Status = "REVOKED"
	StatusExpired   Status = "EXPIRED"
	StatusCompleted Status = "COMPLETED"
)

type Component string

const (
	ComponentWarning Component = "warning"
	ComponentFine    Component = "fine"
	ComponentMeasure Component = "measure"
)

func (c Component) Valid() bool {
	return c == ComponentWarning || c == ComponentFine || c == ComponentMeasure
}

var (
	ErrNotFound               = serrors.ErrNotFound.WithMessage("sanction not found")
	ErrEmptySanction          = serrors.NewError("EMPTY_SANCTION", "a sanction needs a warning, a fine or a measure", "Errors.EmptySanction")
	ErrInvalidStateTransition = serrors.NewError("INVALID_STATE_TRANSITION", "invalid state transition", "Errors.InvalidStateTransition")
	ErrComponentAbsent        = serrors.NewError("VALIDATION_FAILED", "sanction has no such component", "Errors.SanctionComponentAbsent")
)

// Components is the requested makeup of a new sanction.
type Components struct {
	Warning     bool
	Fine        bool
	FineAmount  decimal.Decimal
	Measure     bool
	MeasureText string
}

type Sanction struct {
	id               uuid.UUID
	tenantID         uuid.UUID
	employeeID       uuid.UUID
	reason           string
	hasWarning       bool
	warningCompleted bool
	hasFine          bool
	fineAmount       decimal.Decimal
	fineCompleted    bool
	hasMeasure       bool
	measureText      string
	measureCompleted bool
	status           Status
	issuedBy         uuid.UUID
	expiresAt        *time.Time
	revokedAt        *time.Time
	revokedBy        *uuid.UUID
	createdAt        time.Time
	updatedAt        time.Time
}

// New validates the components and returns an ACTIVE sanction.
func New(tenantID, employeeID, issuedBy uuid.UUID, c Components, reason string, expiresAt *time.Time) (Sanction, error) {
	if !c.Warning && !c.Fine && !c.Measure {
		return Sanction{}, ErrEmptySanction
	}
	verrs := serrors.ValidationErrors{}
	if c.Fine && !c.FineAmount.IsPositive() {
		verrs["fine_amount"] = "must be greater than 0"
	}
	if c.Measure && strings.TrimSpace(c.MeasureText) == "" {
		verrs["measure_text"] = "is required"
	}
	if strings.TrimSpace(reason) == "" {
		verrs["reason"] = "is required"
	}
	if err := verrs.AsError(); err != nil {
		return Sanction{}, err
	}
	now := time.Now()
	s := Sanction{
		id:         uuid.New(),
		tenantID:   tenantID,
		employeeID: employeeID,
		reason:     strings.TrimSpace(reason),
		hasWarning: c.Warning,
		hasFine:    c.Fine,
		hasMeasure: c.Measure,
		status:     StatusActive,
		issuedBy:   issuedBy,
		expiresAt:  expiresAt,
		createdAt:  now,
		updatedAt:  now,
	}
	if c.Fine {
		s.fineAmount = c.FineAmount
	}
	if c.Measure {
		s.measureText = strings.TrimSpace(c.MeasureText)
	}
	return s, nil
}

// State is the persisted form of a Sanction.
type State struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	EmployeeID       uuid.UUID
	Reason           string
	HasWarning       bool
	WarningCompleted bool
	HasFine          bool
	FineAmount       decimal.Decimal
	FineCompleted    bool
	HasMeasure       bool
	MeasureText      string
	MeasureCompleted bool
	Status           Status
	IssuedBy         uuid.UUID
	ExpiresAt        *time.Time
	RevokedAt        *time.Time
	RevokedBy        *uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func Hydrate(st State) Sanction {
	return Sanction{
		id:               st.ID,
		tenantID:         st.TenantID,
		employeeID:       st.EmployeeID,
		reason:           st.Reason,
		hasWarning:       st.HasWarning,
		warningCompleted: st.WarningCompleted,
		hasFine:          st.HasFine,
		fineAmount:       st.FineAmount,
		fineCompleted:    st.FineCompleted,
		hasMeasure:       st.HasMeasure,
		measureText:      st.MeasureText,
		measureCompleted: st.MeasureCompleted,
		status:           st.Status,
		issuedBy:         st.IssuedBy,
		expiresAt:        st.ExpiresAt,
		revokedAt:        st.RevokedAt,
		revokedBy:        st.RevokedBy,
		createdAt:        st.CreatedAt,
		updatedAt:        st.UpdatedAt,
	}
}

func (s Sanction) State() State {
	return State{
		ID:               s.id,
		TenantID:         s.tenantID,
		EmployeeID:       s.employeeID,
		Reason:           s.reason,
		HasWarning:       s.hasWarning,
		WarningCompleted: s.warningCompleted,
		HasFine:          s.hasFine,
		FineAmount:       s.fineAmount,
		FineCompleted:    s.fineCompleted,
		HasMeasure:       s.hasMeasure,
		MeasureText:      s.measureText,
		MeasureCompleted: s.measureCompleted,
		Status:           s.status,
		IssuedBy:         s.issuedBy,
		ExpiresAt:        s.expiresAt,
		RevokedAt:        s.revokedAt,
		RevokedBy:        s.revokedBy,
		CreatedAt:        s.createdAt,
		UpdatedAt:        s.updatedAt,
	}
}

func (s Sanction) ID() uuid.UUID         { return s.id }
func (s Sanction) EmployeeID() uuid.UUID { return s.employeeID }
func (s Sanction) Status() Status        { return s.status }
func (s Sanction) Reason() string        { return s.reason }

// Has reports whether the component was part of the sanction.
func (s Sanction) Has(c Component) bool {
	switch c {
	case ComponentWarning:
		return s.hasWarning
	case ComponentFine:
		return s.hasFine
	case ComponentMeasure:
		return s.hasMeasure
	}
	return false
}

func (s Sanction) Completed(c Component) bool {
	switch c {
	case ComponentWarning:
		return s.warningCompleted
	case ComponentFine:
		return s.fineCompleted
	case ComponentMeasure:
		return s.measureCompleted
	}
	return false
}

// ToggleCompletion flips one present component of an ACTIVE sanction.
func (s Sanction) ToggleCompletion(c Component) (Sanction, error) {
	if !c.Valid() {
		return s, serrors.ValidationErrors{"component": "must be one of [warning fine measure]"}.AsError()
	}
	if !s.Has(c) {
		return s, ErrComponentAbsent.WithTemplateData(map[string]string{"component": string(c)})
	}
	if s.status != StatusActive {
		return s, ErrInvalidStateTransition.WithMessage("sanction is %s", s.status)
	}
	switch c {
	case ComponentWarning:
		s.warningCompleted = !s.warningCompleted
	case ComponentFine:
		s.fineCompleted = !s.fineCompleted
	case ComponentMeasure:
		s.measureCompleted = !s.measureCompleted
	}
	s.updatedAt = time.Now()
	return s, nil
}

// Revoke is the only engine-managed exit from ACTIVE. A sanction already
// past its expiry at reads as EXPIRED and is not revocable.
func (s Sanction) Revoke(by uuid.UUID, at time.Time) (Sanction, error) {
	if st := s.EffectiveStatus(at); st != StatusActive {
		return s, ErrInvalidStateTransition.WithMessage("cannot revoke a %s sanction", st)
	}
	s.status = StatusRevoked
	s.revokedAt = &at
	s.revokedBy = &by
	s.updatedAt = at
	return s, nil
}

// EffectiveStatus is the read-side status: an ACTIVE sanction past its
// expiry reads as EXPIRED. Component completion never changes it.
func (s Sanction) EffectiveStatus(now time.Time) Status {
	if s.status == StatusActive && s.expiresAt != nil && now.After(*s.expiresAt) {
		return StatusExpired
	}
	return s.status
}

// AllComponentsCompleted reports whether every present component is done.
func (s Sanction) AllComponentsCompleted() bool {
	for _, c := range []Component{ComponentWarning, ComponentFine, ComponentMeasure} {
		if s.Has(c) && !s.Completed(c) {
			return false
		}
	}
	return true
}
