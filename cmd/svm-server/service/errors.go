package service

import (
	"errors"
	"fmt"
)

// ErrInvalidFile marks a batch file part that is missing or unreadable
var ErrInvalidFile = errors.New("invalid file part")

// ValidationError reports a rejected upload field. Validation happens
// before any side effect, so a batch failing validation leaves no state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErr(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// HashMismatchError reports a file whose recomputed digest did not match
// the client-supplied hash. It fails the whole batch; files committed for
// earlier indices stay in place since their commits are idempotent.
type HashMismatchError struct {
	Name     string
	Claimed  string
	Computed string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("file %s hash mismatch: claimed %s, computed %s", e.Name, e.Claimed, e.Computed)
}
