package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/httpapi"
)

// RequireTenant reads the organization from header, falling back to
// fallback when the header is absent. Requests with neither are rejected.
func RequireTenant(header string, fallback uuid.UUID) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := fallback
			if raw := strings.TrimSpace(r.Header.Get(header)); raw != "" {
				parsed, err := uuid.Parse(raw)
				if err != nil {
					httpapi.WriteError(w, r, http.StatusBadRequest, "INVALID_TENANT", "tenant header must be a uuid")
					return
				}
				tenantID = parsed
			}
			if tenantID == uuid.Nil {
				httpapi.WriteError(w, r, http.StatusBadRequest, "INVALID_TENANT", "tenant is required")
				return
			}
			ctx := composables.WithTenantID(r.Context(), tenantID)
			ctx = composables.WithLogger(ctx, composables.UseLogger(ctx).WithField("tenant-id", tenantID.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
