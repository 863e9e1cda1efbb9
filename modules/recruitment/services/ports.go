package services

import (
	"context"

	"github.com/google/uuid"
)

// Hirer creates employees for completed applications. Both calls join the
// caller's transaction.
type Hirer interface {
	ExistsByDiscordID(ctx context.Context, discordID string) (bool, error)
	Hire(ctx context.Context, discordID, displayName string, hiredBy uuid.UUID) (uuid.UUID, error)
}

type IncentiveEmitter interface {
	Emit(ctx context.Context, eventType string, actorEmployeeID uuid.UUID, subjectLabel, sourceRecordID string) error
}
