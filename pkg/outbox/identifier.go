package outbox

import (
	"strings"

	"github.com/jackc/pgx/v5"
)

// ParseIdentifier turns the configured outbox table ("table" or
// "schema.table") into a quoted-safe pgx.Identifier.
func ParseIdentifier(s string) (pgx.Identifier, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ".")
	if s == "" || len(parts) > 2 {
		return nil, invalidConfig("outbox table %q must be table or schema.table", s)
	}
	for _, p := range parts {
		if !plainName(p) {
			return nil, invalidConfig("outbox table %q has an invalid part %q", s, p)
		}
	}
	return pgx.Identifier(parts), nil
}

func plainName(p string) bool {
	if p == "" {
		return false
	}
	for _, r := range p {
		switch {
		case r == '_', r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
