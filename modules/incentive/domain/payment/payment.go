// Package payment models incentive payouts earned by employees for
// recruitment and academy work.
package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/precinct/pkg/serrors"
)

// Event types that earn an incentive.
const (
	ApplicationProcessed = "application_processed"
	ModuleCompleted      = "module_completed"
	ExamConducted        = "exam_conducted"
)

var ErrUnknownEventType = serrors.ErrValidation.WithMessage("unknown incentive event type")

func KnownEventType(t string) bool {
	switch t {
	case ApplicationProcessed, ModuleCompleted, ExamConducted:
		return true
	}
	return false
}

type Payment struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	EmployeeID     uuid.UUID
	EventType      string
	SubjectLabel   string
	SourceRecordID string
	Amount         decimal.Decimal
	Week           string
	CreatedAt      time.Time
}

func New(tenantID, employeeID uuid.UUID, eventType, subject, sourceRecordID string, amount decimal.Decimal, at time.Time) Payment {
	return Payment{
		ID:             uuid.New(),
		TenantID:       tenantID,
		EmployeeID:     employeeID,
		EventType:      eventType,
		SubjectLabel:   strings.TrimSpace(subject),
		SourceRecordID: sourceRecordID,
		Amount:         amount,
		Week:           Week(at),
		CreatedAt:      at,
	}
}

// Week formats t as an ISO week key, e.g. "2026-W07".
func Week(t time.Time) string {
	y, w := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", y, w)
}

// ParseWeek validates an ISO week key.
func ParseWeek(s string) (string, error) {
	var y, w int
	if _, err := fmt.Sscanf(s, "%d-W%d", &y, &w); err != nil || w < 1 || w > 53 || y < 2000 {
		return "", serrors.ErrValidation.WithMessage("invalid week %q", s)
	}
	return fmt.Sprintf("%d-W%02d", y, w), nil
}

// Summary totals one employee's payments for a week.
type Summary struct {
	EmployeeID uuid.UUID
	Week       string
	Count      int
	Total      decimal.Decimal
	ByType     map[string]int
}

type FindParams struct {
	EmployeeID uuid.UUID
	Week       string
	Limit      int
	Offset     int
}

type Repository interface {
	// Create stores p unless a payment for the same event type and source
	// record exists. It reports whether a row was written.
	Create(ctx context.Context, p Payment) (bool, error)
	List(ctx context.Context, params *FindParams) ([]Payment, error)
	ByWeek(ctx context.Context, week string) ([]Payment, error)
}

// Summarize folds payments into per-employee totals ordered by total desc.
func Summarize(week string, payments []Payment) []Summary {
	idx := map[uuid.UUID]int{}
	var out []Summary
	for _, p := range payments {
		i, ok := idx[p.EmployeeID]
		if !ok {
			i = len(out)
			idx[p.EmployeeID] = i
			out = append(out, Summary{EmployeeID: p.EmployeeID, Week: week, Total: decimal.Zero, ByType: map[string]int{}})
		}
		out[i].Count++
		out[i].Total = out[i].Total.Add(p.Amount)
		out[i].ByType[p.EventType]++
	}
	sortSummaries(out)
	return out
}
