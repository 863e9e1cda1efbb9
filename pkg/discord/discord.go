// Package discord adapts the guild REST API to the ports the personnel
// services depend on: role membership, member profile sync and announcements.
package discord

import (
	"context"
	"time"

	"github.com/iota-uz/precinct/pkg/serrors"
)

var ErrUpstream = serrors.NewError("EXTERNAL_SYNC_FAILURE", "external platform request failed", "Errors.ExternalSyncFailure")

// RoleStore is the external role-membership store.
type RoleStore interface {
	GetMemberRoles(ctx context.Context, externalID string) ([]string, error)
	// SetMemberRoles applies add and remove as one batch; either all changes
	// land or none do.
	SetMemberRoles(ctx context.Context, externalID string, add, remove []string) error
}

type Profiles interface {
	UpdateDisplayName(ctx context.Context, externalID, name string) error
	KickMember(ctx context.Context, externalID, reason string) error
	CreateInviteLink(ctx context.Context, ttl time.Duration, maxUses int) (string, error)
}

type Announcer interface {
	Announce(ctx context.Context, channelID, content string) error
}

// Gateway bundles every port; Client and Noop satisfy it.
type Gateway interface {
	RoleStore
	Profiles
	Announcer
}

// Noop is used when the integration is disabled. Reads report no roles and
// writes succeed without effect.
type Noop struct{}

func (Noop) GetMemberRoles(context.Context, string) ([]string, error)        { return nil, nil }
func (Noop) SetMemberRoles(context.Context, string, []string, []string) error { return nil }
func (Noop) UpdateDisplayName(context.Context, string, string) error          { return nil }
func (Noop) KickMember(context.Context, string, string) error                 { return nil }
func (Noop) Announce(context.Context, string, string) error                   { return nil }
func (Noop) CreateInviteLink(context.Context, time.Duration, int) (string, error) {
	return "", ErrUpstream.WithMessage("discord integration is disabled")
}
