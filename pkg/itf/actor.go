package itf

import (
	"github.com/google/uuid"

	"github.com/iota-uz/precinct/pkg/authz"
)

// Actor returns an enforcing actor holding exactly perms.
func Actor(tenantID uuid.UUID, perms ...authz.Permission) authz.Actor {
	return ActorFor(tenantID, uuid.New(), perms...)
}

// ActorFor is Actor bound to an existing employee record.
func ActorFor(tenantID, employeeID uuid.UUID, perms ...authz.Permission) authz.Actor {
	return authz.Actor{
		ID:           employeeID,
		TenantID:     tenantID,
		DiscordID:    "actor-" + employeeID.String()[:8],
		DisplayName:  "Test Actor",
		Capabilities: authz.NewCapabilities(perms...),
		Mode:         authz.ModeEnforce,
	}
}

// Anonymous holds no permissions.
func Anonymous(tenantID uuid.UUID) authz.Actor {
	return Actor(tenantID)
}

func (te *TestEnvironment) Actor(perms ...authz.Permission) authz.Actor {
	return Actor(te.TenantID, perms...)
}

func (te *TestEnvironment) Chief() authz.Actor {
	return Actor(te.TenantID, authz.Wildcard)
}
