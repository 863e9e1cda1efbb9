package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/modules/incentive/domain/payment"
	"github.com/iota-uz/precinct/pkg/outbox"
)

// Emitter records incentive triggers alongside the work that earned them.
// Call it inside the caller's transaction so a rolled back operation pays
// nothing.
type Emitter struct {
	recorder outbox.Recorder
}

func NewEmitter(recorder outbox.Recorder) *Emitter {
	return &Emitter{recorder: recorder}
}

func (e *Emitter) Emit(ctx context.Context, eventType string, actorEmployeeID uuid.UUID, subjectLabel, sourceRecordID string) error {
	if !payment.KnownEventType(eventType) {
		return payment.ErrUnknownEventType.WithDetails(map[string]any{"event_type": eventType})
	}
	return e.recorder.Record(ctx, &payment.TriggeredEvent{
		EventType:       eventType,
		ActorEmployeeID: actorEmployeeID,
		SubjectLabel:    subjectLabel,
		SourceRecordID:  sourceRecordID,
		OccurredAt:      time.Now(),
	})
}
