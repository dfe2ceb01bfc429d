package apperror

import (
	"errors"
	"fmt"
)

// Collaborator and state errors surfaced to the dispatcher boundary.
var (
	ErrClassificationUnavailable = errors.New("classification unavailable")
	ErrRetrievalUnavailable      = errors.New("retrieval unavailable")
	ErrGenerationUnavailable     = errors.New("generation unavailable")
	ErrLedgerUnavailable         = errors.New("ledger unavailable")
	ErrStateConflict             = errors.New("session state conflict")
	ErrNotFound                  = errors.New("not found")
	ErrForbidden                 = errors.New("forbidden")
)

// ValidationError carries a user-facing reason for a rejected slot value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsUnavailable reports whether err is one of the retry-safe collaborator outages.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrClassificationUnavailable) ||
		errors.Is(err, ErrRetrievalUnavailable) ||
		errors.Is(err, ErrGenerationUnavailable) ||
		errors.Is(err, ErrLedgerUnavailable)
}
