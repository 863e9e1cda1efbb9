package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/serrors"
)

// ErrorEnvelope standardizes JSON error responses.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Details map[string]any    `json:"details,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

var statusByCode = map[string]int{
	"PERMISSION_DENIED":        http.StatusForbidden,
	"NOT_FOUND":                http.StatusNotFound,
	"RANK_BOUNDARY":            http.StatusConflict,
	"BADGE_RANGE_EXHAUSTED":    http.StatusConflict,
	"BLACKLISTED":              http.StatusConflict,
	"ALREADY_EMPLOYED":         http.StatusConflict,
	"NOT_ELIGIBLE":             http.StatusConflict,
	"DUPLICATE_REQUEST":        http.StatusConflict,
	"INSUFFICIENT_FUNDS":       http.StatusConflict,
	"INVALID_STATE_TRANSITION": http.StatusConflict,
	"CONFLICT":                 http.StatusConflict,
	"INVALID_AMOUNT":           http.StatusUnprocessableEntity,
	"EMPTY_SANCTION":           http.StatusUnprocessableEntity,
	"VALIDATION_FAILED":        http.StatusUnprocessableEntity,
	"EXTERNAL_SYNC_FAILURE":    http.StatusBadGateway,
}

// StatusFor maps an error to the HTTP status clients see. Errors without a
// known code are internal.
func StatusFor(err error) int {
	code, ok := serrors.Code(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		panic(err)
	}
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    map[string]string{"request_id": requestID(w, r)},
	})
}

// WriteServiceError renders a service error. Internal errors are logged and
// never echoed to the client.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	var be *serrors.BaseError
	if status == http.StatusInternalServerError || !errors.As(err, &be) {
		composables.UseLogger(r.Context()).WithError(err).Error("request failed")
		WriteError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteJSON(w, status, &ErrorEnvelope{
		Code:    be.Code,
		Message: be.Message,
		Details: be.Details,
		Meta:    map[string]string{"request_id": requestID(w, r)},
	})
}

func requestID(w http.ResponseWriter, r *http.Request) string {
	if r != nil {
		if id, ok := composables.UseRequestID(r.Context()); ok {
			return id
		}
		if id := strings.TrimSpace(r.Header.Get("X-Request-ID")); id != "" {
			return id
		}
	}
	id := uuid.NewString()
	w.Header().Set("X-Request-ID", id)
	return id
}
