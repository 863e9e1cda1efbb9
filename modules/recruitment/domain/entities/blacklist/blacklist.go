// Package blacklist records identities barred from reapplying.
package blacklist

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/pkg/serrors"
)

var (
	ErrNotFound = serrors.ErrNotFound.WithMessage("blacklist entry not found")
	ErrExists   = serrors.ErrConflict.WithMessage("identity is already blacklisted")
)

type Entry struct {
	ID            uuid.UUID  `json:"id"`
	DiscordID     string     `json:"discord_id"`
	ApplicantName string     `json:"applicant_name"`
	Reason        string     `json:"reason"`
	ApplicationID uuid.UUID  `json:"application_id"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

func New(discordID, applicantName, reason string, applicationID, createdBy uuid.UUID, expiresAt *time.Time) Entry {
	return Entry{
		ID:            uuid.New(),
		DiscordID:     strings.TrimSpace(discordID),
		ApplicantName: strings.TrimSpace(applicantName),
		Reason:        strings.TrimSpace(reason),
		ApplicationID: applicationID,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now(),
		ExpiresAt:     expiresAt,
	}
}

// ActiveAt reports whether the entry still bars the identity at t.
func (e Entry) ActiveAt(t time.Time) bool {
	return e.ExpiresAt == nil || t.Before(*e.ExpiresAt)
}

// Repository keeps at most one entry per identity.
type Repository interface {
	GetByDiscordID(ctx context.Context, discordID string) (Entry, error)
	List(ctx context.Context) ([]Entry, error)
	Create(ctx context.Context, e Entry) error
	Delete(ctx context.Context, id uuid.UUID) error
}
