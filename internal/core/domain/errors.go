package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrRequestFailed       = errors.New("request failed")
	ErrConcurrencyConflict = errors.New("operation already in progress")
	ErrInvalidTransition   = errors.New("invalid workflow transition")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrInvalidRole         = errors.New("invalid role")
)

// ValidationError is a client-side failure that blocks a transition. It is
// never sent to the backend.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// RequestError is returned when the backend rejected a call or could not be
// reached. Message holds the server-provided "message" field, if any.
type RequestError struct {
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Operation, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Operation, e.Err)
	default:
		return fmt.Sprintf("%s: backend returned status %d", e.Operation, e.StatusCode)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrRequestFailed:
		return true
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// UserMessage picks the text shown next to the control that triggered err:
// the server or validation message when there is one, fallback otherwise.
func UserMessage(err error, fallback string) string {
	var re *RequestError
	if errors.As(err, &re) && strings.TrimSpace(re.Message) != "" {
		return re.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) && strings.TrimSpace(ve.Message) != "" {
		return ve.Message
	}
	return fallback
}
