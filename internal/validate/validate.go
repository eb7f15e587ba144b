// Package validate is the schema-validated input boundary: every mutating
// request payload passes through Validate before any domain logic runs.
package validate

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

var global *validator.Validate

const (
	errFieldRequired      = "field is required"
	errInvalidFormat      = "invalid format"
	errFieldExceedsMaxLen = "field exceeds maximum length"
	errFieldBelowMinLen   = "field is below minimum length"
	errFieldBelowMinVal   = "field is below minimum value"
	errUnknownValidation  = "unknown validation error"
)

func init() {
	global = New()
}

// New builds a validator with the domain's custom rules registered.
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("future", validateFutureDate)
	return v
}

func validateFutureDate(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	return ok && t.After(time.Now())
}

// Validate checks a request struct against its validate tags and returns a
// single user-facing error for the first violation.
func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(global.StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	var vErrors validator.ValidationErrors
	if !errors.As(err, &vErrors) || len(vErrors) == 0 {
		return err
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "required":
		msg = errFieldRequired
	case "email", "uuid4", "oneof":
		msg = errInvalidFormat
	case "max":
		msg = errFieldExceedsMaxLen
	case "min":
		msg = errFieldBelowMinLen
	case "gt", "gte":
		msg = errFieldBelowMinVal
	case "future":
		msg = "date must be in the future"
	default:
		msg = errUnknownValidation
	}
	return errors.New(msg + ": " + ve.Namespace())
}
