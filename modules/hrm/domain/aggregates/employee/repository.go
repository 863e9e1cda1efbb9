package employee

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	Status    Status
	RankLevel int
	Query     string
	Limit     int
	Offset    int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Employee, error)
	// GetByIDForUpdate locks the row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (Employee, error)
	GetByDiscordID(ctx context.Context, discordID string) (Employee, error)
	// ExistsByDiscordID ignores terminated employees.
	ExistsByDiscordID(ctx context.Context, discordID string) (bool, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]Employee, int64, error)
	Create(ctx context.Context, e Employee) (Employee, error)
	Update(ctx context.Context, e Employee) error

	// LockBadgePrefix serializes badge allocation for prefix until the
	// transaction ends.
	LockBadgePrefix(ctx context.Context, prefix string) error
	// BadgesWithPrefix lists badge numbers currently held, org-wide.
	BadgesWithPrefix(ctx context.Context, prefix string) ([]string, error)
}
