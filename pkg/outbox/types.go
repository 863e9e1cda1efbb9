package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Event is a domain fact recorded inside a unit of work and delivered to
// handlers only after that unit commits.
type Event interface {
	Topic() string
}

// Message is one row of the outbox table.
type Message struct {
	TenantID uuid.UUID
	Topic    string
	EventID  uuid.UUID
	Payload  json.RawMessage
}

// Meta travels with every delivered event. Handlers use EventID as the
// idempotency key since delivery is at-least-once.
type Meta struct {
	Table      pgx.Identifier
	TenantID   uuid.UUID
	Topic      string
	EventID    uuid.UUID
	Sequence   int64
	Attempts   int
	RecordedAt time.Time
}

type DispatchedMessage struct {
	Meta    Meta
	Payload json.RawMessage
}
