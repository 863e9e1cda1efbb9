package application

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	Status Status
	Query  string
	Limit  int
	Offset int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Application, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (Application, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]Application, int64, error)
	Create(ctx context.Context, a Application) error
	Update(ctx context.Context, a Application) error
	Delete(ctx context.Context, id uuid.UUID) error
}
