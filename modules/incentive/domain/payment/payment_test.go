package payment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeek(t *testing.T) {
	assert.Equal(t, "2026-W01", Week(time.Date(2025, 12, 29, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-W42", Week(time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)))

	w, err := ParseWeek("2026-W7")
	require.NoError(t, err)
	assert.Equal(t, "2026-W07", w)
	_, err = ParseWeek("2026-W60")
	require.Error(t, err)
	_, err = ParseWeek("last week")
	require.Error(t, err)
}

func TestSummarize(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	now := time.Now()
	ps := []Payment{
		New(uuid.Nil, a, ModuleCompleted, "x", "1", decimal.NewFromInt(1500), now),
		New(uuid.Nil, b, ExamConducted, "y", "2", decimal.NewFromInt(2500), now),
		New(uuid.Nil, a, ModuleCompleted, "z", "3", decimal.NewFromInt(1500), now),
	}
	out := Summarize("2026-W42", ps)
	require.Len(t, out, 2)
	assert.Equal(t, a, out[0].EmployeeID)
	assert.True(t, decimal.NewFromInt(3000).Equal(out[0].Total))
	assert.Equal(t, 2, out[0].ByType[ModuleCompleted])
	assert.Equal(t, 1, out[1].Count)
}
