package uprank

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/pkg/serrors"
)

func TestNew_BuildsJustification(t *testing.T) {
	r := New(uuid.New(), uuid.New(), 1, 2, []string{"Traffic stops", "Radio procedure"}, " ", uuid.New())
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, "Completed all academy modules for Junior Officer: Traffic stops, Radio procedure.", r.Justification)
	assert.Equal(t, "Cadet", r.CurrentRank())
	assert.Empty(t, r.Achievements)
}

func TestRequest_Transitions(t *testing.T) {
	r := New(uuid.New(), uuid.New(), 1, 2, nil, "", uuid.New())
	by := uuid.New()

	_, err := r.Reject("", by, time.Now())
	require.ErrorIs(t, err, serrors.ErrValidation)

	approved, err := r.Approve(by, time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, by, approved.ProcessedBy)

	_, err = approved.Reject("too late", by, time.Now())
	require.ErrorIs(t, err, ErrInvalidStateTransition)
	_, err = approved.Approve(by, time.Now())
	require.ErrorIs(t, err, ErrInvalidStateTransition)
}
