package serrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSample = NewError("SAMPLE", "sample failure", "Errors.Sample")

func TestBaseError_IsMatchesByCode(t *testing.T) {
	derived := errSample.WithTemplateData(map[string]string{"id": "42"})
	wrapped := fmt.Errorf("outer: %w", derived)

	require.ErrorIs(t, wrapped, errSample)
	assert.Equal(t, "42", derived.TemplateData["id"])
	assert.Nil(t, errSample.TemplateData, "sentinel must not be mutated")

	other := NewError("OTHER", "other", "")
	assert.False(t, errors.Is(wrapped, other))
}

func TestCode(t *testing.T) {
	code, ok := Code(fmt.Errorf("ctx: %w", errSample.Wrap(errors.New("boom"))))
	require.True(t, ok)
	assert.Equal(t, "SAMPLE", code)

	_, ok = Code(errors.New("plain"))
	assert.False(t, ok)
}

func TestValidationErrors_AsError(t *testing.T) {
	assert.NoError(t, ValidationErrors{}.AsError())

	err := ValidationErrors{"Reason": "is required"}.AsError()
	require.ErrorIs(t, err, ErrValidation)

	var be *BaseError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "is required", be.Details["Reason"])
}
