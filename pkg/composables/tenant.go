package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/pkg/constants"
)

var ErrNoTenantID = errors.New("tenant id not found in context")

// WithTenantID binds the organization the request operates on.
func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.TenantIDKey, tenantID)
}

func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	v, ok := ctx.Value(constants.TenantIDKey).(uuid.UUID)
	if !ok || v == uuid.Nil {
		return uuid.Nil, ErrNoTenantID
	}
	return v, nil
}
