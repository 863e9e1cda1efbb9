package outbox

import (
	"fmt"

	"github.com/iota-uz/precinct/pkg/serrors"
)

var (
	ErrInvalidConfig = serrors.NewError("OUTBOX_INVALID_CONFIG", "invalid outbox configuration", "")
	ErrUnknownTopic  = serrors.NewError("OUTBOX_UNKNOWN_TOPIC", "no event registered for topic", "")
)

func invalidConfig(msg string, args ...any) error {
	return fmt.Errorf("%w: "+msg, append([]any{ErrInvalidConfig}, args...)...)
}
