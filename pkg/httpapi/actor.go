package httpapi

import (
	"net/http"
	"strconv"

	"github.com/iota-uz/precinct/pkg/authz"
)

// Actor returns the actor bound by the actor middleware. When none is bound
// it writes a 401 and reports false.
func Actor(w http.ResponseWriter, r *http.Request) (authz.Actor, bool) {
	actor, ok := authz.ActorFrom(r.Context())
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "missing actor")
		return authz.Actor{}, false
	}
	return actor, true
}

// Page reads limit/offset query parameters, clamping limit to max.
func Page(r *http.Request, def, max int) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = def
	}
	if max > 0 && limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
