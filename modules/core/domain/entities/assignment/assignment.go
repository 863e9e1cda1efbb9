// Package assignment maps external (Discord) identities to authz role slugs.
package assignment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/pkg/serrors"
)

var (
	ErrNotFound     = serrors.ErrNotFound.WithMessage("role assignment not found")
	ErrAlreadyGiven = serrors.ErrConflict.WithMessage("role already assigned")
)

type Assignment struct {
	TenantID  uuid.UUID
	DiscordID string
	Role      string
	GrantedBy uuid.UUID
	GrantedAt time.Time
}

func New(tenantID uuid.UUID, discordID, role string, grantedBy uuid.UUID) Assignment {
	return Assignment{
		TenantID:  tenantID,
		DiscordID: strings.TrimSpace(discordID),
		Role:      NormalizeRole(role),
		GrantedBy: grantedBy,
		GrantedAt: time.Now(),
	}
}

func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

type Repository interface {
	RolesOf(ctx context.Context, discordID string) ([]string, error)
	List(ctx context.Context) ([]Assignment, error)
	Create(ctx context.Context, a Assignment) error
	Delete(ctx context.Context, discordID, role string) error
}
