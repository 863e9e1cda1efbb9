package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iota-uz/precinct/pkg/configuration"
	"github.com/iota-uz/precinct/pkg/httpapi"
)

// OpsGuard restricts operational paths (the metrics scrape endpoint) to
// callers from an allowed network or presenting the ops token. Other paths
// pass through untouched.
func OpsGuard(opts configuration.OpsGuardOptions, paths ...string) mux.MiddlewareFunc {
	guarded := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		guarded[p] = struct{}{}
	}
	cidrs := parseCIDRs(opts.CIDRs)
	token := strings.TrimSpace(opts.Token)

	authorized := func(r *http.Request) bool {
		if ip, ok := realIP(r, opts.RealIPHeader); ok {
			if addr, err := netip.ParseAddr(ip); err == nil {
				for _, p := range cidrs {
					if p.Contains(addr) {
						return true
					}
				}
			}
		}
		return token != "" && subtle.ConstantTimeCompare([]byte(tokenFromRequest(r)), []byte(token)) == 1
	}

	return func(next http.Handler) http.Handler {
		if !opts.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := guarded[r.URL.Path]; !ok || authorized(r) {
				next.ServeHTTP(w, r)
				return
			}
			httpapi.WriteError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found")
		})
	}
}

func parseCIDRs(raw string) []netip.Prefix {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' || r == ' ' })
	out := make([]netip.Prefix, 0, len(parts))
	for _, part := range parts {
		if p, err := netip.ParsePrefix(part); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func tokenFromRequest(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get("X-Ops-Token")); t != "" {
		return t
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > len("bearer ") && strings.EqualFold(auth[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return ""
}

func realIP(r *http.Request, header string) (string, bool) {
	if header != "" {
		if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
			// X-Forwarded-For style: take the first item
			if i := strings.IndexByte(v, ','); i >= 0 {
				v = strings.TrimSpace(v[:i])
			}
			return stripPort(v)
		}
	}
	return stripPort(r.RemoteAddr)
}

func stripPort(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		return host, true
	}
	return s, true
}
