package authz

import (
	"fmt"
	"strings"

	"github.com/iota-uz/precinct/pkg/serrors"
)

var ErrPermissionDenied = serrors.NewError("PERMISSION_DENIED", "permission denied", "Authorization.PermissionDenied")

func deniedError(perms []Permission) *serrors.BaseError {
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, string(p))
	}
	return ErrPermissionDenied.WithTemplateData(map[string]string{
		"permission": strings.Join(names, ","),
	})
}

// configError standardizes configuration validation errors.
func configError(msg string, args ...any) error {
	return fmt.Errorf("authz: "+msg, args...)
}
