package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUpstreamUnavailable = errors.New("analysis service unavailable")
	ErrMalformedResponse   = errors.New("could not parse response into the required schema")
	ErrSchemaViolation     = errors.New("response violates the required schema")
	ErrRateLimited         = errors.New("rate limited")
)

// InvalidInputError indica una solicitud vacia o mal formada; el usuario debe corregir la entrada.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// UpstreamUnavailableError envuelve fallas del proveedor (transporte, timeout, cuota).
type UpstreamUnavailableError struct {
	Cause error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.Cause == nil {
		return ErrUpstreamUnavailable.Error()
	}
	return fmt.Sprintf("%s: %v", ErrUpstreamUnavailable, e.Cause)
}

func (e *UpstreamUnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUpstreamUnavailable}
	}
	return []error{ErrUpstreamUnavailable, e.Cause}
}

// MalformedResponseError: la respuesta no es JSON parseable.
type MalformedResponseError struct {
	Cause error
}

func (e *MalformedResponseError) Error() string {
	if e.Cause == nil {
		return ErrMalformedResponse.Error()
	}
	return fmt.Sprintf("%s: %v", ErrMalformedResponse, e.Cause)
}

func (e *MalformedResponseError) Unwrap() error { return ErrMalformedResponse }

// SchemaViolationError nombra el campo (ruta JSON) que viola el contrato.
type SchemaViolationError struct {
	Field  string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrSchemaViolation, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrSchemaViolation, e.Field, e.Reason)
}

func (e *SchemaViolationError) Unwrap() error { return ErrSchemaViolation }

func violation(field, format string, args ...any) *SchemaViolationError {
	return &SchemaViolationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// UserMessage devuelve el texto mostrable al usuario segun el tipo de error.
func UserMessage(err error) string {
	var invalid *InvalidInputError
	var schema *SchemaViolationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &invalid):
		return "Please check your input: " + invalid.Reason + "."
	case errors.Is(err, ErrRateLimited):
		return "Too many submissions. Please wait a moment and try again."
	case errors.Is(err, ErrUpstreamUnavailable):
		return "The analysis service is temporarily unavailable. Please try again."
	case errors.Is(err, ErrMalformedResponse):
		return "Failed to parse AI response into the required schema."
	case errors.As(err, &schema):
		if schema.Field != "" {
			return "The analysis result was invalid (" + schema.Field + ")."
		}
		return "The analysis result was invalid."
	default:
		return "An unexpected error occurred during processing."
	}
}
