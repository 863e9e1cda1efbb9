package sanction

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	EmployeeID uuid.UUID
	Status     Status
	Limit      int
	Offset     int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Sanction, error)
	// GetByIDForUpdate locks the row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (Sanction, error)
	List(ctx context.Context, params *FindParams) ([]Sanction, error)
	Create(ctx context.Context, s Sanction) error
	Update(ctx context.Context, s Sanction) error
}
