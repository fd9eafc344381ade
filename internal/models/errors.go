package models

import "errors"

// ErrNotFound is returned when a referenced task does not exist.
var ErrNotFound = errors.New("task not found")

// ValidationError reports input that violates a task invariant.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
