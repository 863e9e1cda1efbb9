package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/form"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/precinct/pkg/constants"
	"github.com/iota-uz/precinct/pkg/serrors"
)

var queryDecoder = form.NewDecoder()

func init() {
	queryDecoder.SetTagName("query")
	queryDecoder.RegisterCustomTypeFunc(func(vals []string) (interface{}, error) {
		return uuid.Parse(vals[0])
	}, uuid.UUID{})
	queryDecoder.RegisterCustomTypeFunc(func(vals []string) (interface{}, error) {
		if t, err := time.Parse(time.DateOnly, vals[0]); err == nil {
			return t, nil
		}
		return time.Parse(time.RFC3339, vals[0])
	}, time.Time{})
}

// Validate runs struct validation and converts failures to VALIDATION_FAILED.
func Validate(v any) error {
	err := constants.Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return serrors.ProcessValidatorErrors(verrs).AsError()
	}
	return serrors.ErrValidation.Wrap(err)
}

// DecodeJSON reads a JSON body into dst and validates it.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return serrors.ErrValidation.WithMessage("invalid json: %v", err)
	}
	return Validate(dst)
}

// DecodeQuery fills dst from the URL query using `query` tags and validates it.
func DecodeQuery(r *http.Request, dst any) error {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		return serrors.ErrValidation.WithMessage("invalid query: %v", err)
	}
	return Validate(dst)
}

// PathUUID parses a mux path variable.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(mux.Vars(r)[name])
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, serrors.ValidationErrors{name: "must be a uuid"}.AsError()
	}
	return id, nil
}
