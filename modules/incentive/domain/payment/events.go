package payment

import (
	"time"

	"github.com/google/uuid"
)

const TopicTriggered = "incentive.triggered"

// TriggeredEvent is recorded in the same transaction as the work that earned
// the incentive and paid out after commit.
type TriggeredEvent struct {
	EventType       string    `json:"event_type"`
	ActorEmployeeID uuid.UUID `json:"actor_employee_id"`
	SubjectLabel    string    `json:"subject_label"`
	SourceRecordID  string    `json:"source_record_id"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func (TriggeredEvent) Topic() string { return TopicTriggered }
