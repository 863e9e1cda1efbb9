package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/httpapi"
	"github.com/iota-uz/precinct/pkg/serrors"
)

// ActorRecord is what the directory knows about a caller. EmployeeID is nil
// for callers that are not (yet) employees.
type ActorRecord struct {
	EmployeeID  uuid.UUID
	DisplayName string
	Roles       []string
}

type ActorDirectory interface {
	FindActor(ctx context.Context, discordID string) (ActorRecord, error)
}

type CapabilityResolver interface {
	Resolve(ctx context.Context, tenantID, employeeID uuid.UUID, discordID, displayName string, roles []string) (authz.Actor, error)
}

type ActorOptions struct {
	Header        string
	Superusers    []string
	SuperuserRole string
}

// ResolveActor authenticates the caller from the trusted actor header and
// binds the resolved authz.Actor to the request context.
func ResolveActor(directory ActorDirectory, resolver CapabilityResolver, opts ActorOptions) mux.MiddlewareFunc {
	superusers := make(map[string]struct{}, len(opts.Superusers))
	for _, id := range opts.Superusers {
		if id = strings.TrimSpace(id); id != "" {
			superusers[id] = struct{}{}
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			discordID := strings.TrimSpace(r.Header.Get(opts.Header))
			if discordID == "" {
				httpapi.WriteError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "missing actor")
				return
			}
			tenantID, err := composables.UseTenantID(ctx)
			if err != nil {
				httpapi.WriteServiceError(w, r, err)
				return
			}

			record, err := directory.FindActor(ctx, discordID)
			if err != nil && !errors.Is(err, serrors.ErrNotFound) {
				httpapi.WriteServiceError(w, r, err)
				return
			}
			roles := record.Roles
			if _, ok := superusers[discordID]; ok && opts.SuperuserRole != "" {
				roles = append(append([]string(nil), roles...), opts.SuperuserRole)
			}

			actor, err := resolver.Resolve(ctx, tenantID, record.EmployeeID, discordID, record.DisplayName, roles)
			if err != nil {
				httpapi.WriteServiceError(w, r, err)
				return
			}
			ctx = authz.WithActor(ctx, actor)
			ctx = composables.WithLogger(ctx, composables.UseLogger(ctx).WithField("actor", discordID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
