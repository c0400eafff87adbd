package application

import "errors"

var (
	// ErrNotFound is returned when the requested event does not exist.
	ErrNotFound = errors.New("event not found")
	// ErrStorage wraps persistence failures that are neither validation nor
	// not-found conditions. The operation is reported failed and no state
	// changes; nothing is retried.
	ErrStorage = errors.New("storage failure")
	// ErrStaleView is returned when a refresh was superseded by a newer
	// navigation before its result could be applied. The result is discarded.
	ErrStaleView = errors.New("view refresh superseded")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
