package authz

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/pkg/constants"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	// ID is the employee record backing the caller. Nil for system actors.
	ID           uuid.UUID
	TenantID     uuid.UUID
	DiscordID    string
	DisplayName  string
	Roles        []string
	Capabilities Capabilities
	Mode         Mode
}

// System returns an actor holding every permission, used by the CLI and
// event handlers.
func System(tenantID uuid.UUID) Actor {
	return Actor{
		TenantID:     tenantID,
		DisplayName:  "system",
		Capabilities: NewCapabilities(Wildcard),
		Mode:         ModeEnforce,
	}
}

func (a Actor) Has(p Permission) bool { return a.Capabilities.Has(p) }

// Require returns ErrPermissionDenied unless the actor holds p. In shadow
// mode denials are logged and counted but let through.
func (a Actor) Require(p Permission) error {
	return a.RequireAny(p)
}

func (a Actor) RequireAny(perms ...Permission) error {
	if a.Mode == ModeDisabled || a.Capabilities.HasAny(perms...) {
		recordDecision(perms, true)
		return nil
	}
	recordDecision(perms, false)
	if a.Mode == ModeShadow {
		logrus.WithFields(logrus.Fields{
			"component":   "authz",
			"actor":       a.ID,
			"tenant":      a.TenantID,
			"permissions": perms,
			"mode":        ModeShadow,
		}).Warn("authz shadow deny")
		return nil
	}
	return deniedError(perms)
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, constants.ActorKey, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(constants.ActorKey).(Actor)
	return a, ok
}
