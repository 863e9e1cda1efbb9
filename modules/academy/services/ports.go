package services

import (
	"context"

	"github.com/google/uuid"

	hrmservices "github.com/iota-uz/precinct/modules/hrm/services"
)

// Ranks reads an employee's current rank level. Unknown employees yield a
// not-found error.
type Ranks interface {
	RankOf(ctx context.Context, employeeID uuid.UUID) (int, error)
}

// Promoter applies an approved rank change inside the caller's transaction.
type Promoter interface {
	AdvanceTo(ctx context.Context, employeeID uuid.UUID, targetLevel int, changedBy uuid.UUID) (hrmservices.RankResult, error)
}

type IncentiveEmitter interface {
	Emit(ctx context.Context, eventType string, actorEmployeeID uuid.UUID, subjectLabel, sourceRecordID string) error
}
