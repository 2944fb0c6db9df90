package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals a hit record that violates the search executor contract.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfig signals invalid thresholds or tool configuration.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrDatabaseNotFound signals a configured database with neither index files nor source FASTA.
	ErrDatabaseNotFound = errors.New("database not found")
	// ErrDatabaseBuild signals a failed database build.
	ErrDatabaseBuild = errors.New("database build failed")
	// ErrSearchFailed signals a search executor failure.
	ErrSearchFailed = errors.New("search failed")
	// ErrRunNotFound signals a missing evaluation run.
	ErrRunNotFound = errors.New("run not found")
)

// InvalidInputError wraps ErrInvalidInput with the offending query, hit position and field.
type InvalidInputError struct {
	Query  string
	Index  int
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("%s: hit %d: %s: %s", ErrInvalidInput.Error(), e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: query %q hit %d: %s: %s",
		ErrInvalidInput.Error(), e.Query, e.Index, e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// NewInvalidInput creates an invalid input error for a hit field.
func NewInvalidInput(field, reason string) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: reason}
}

// WithLocation returns a copy of err attributed to a query and hit position.
// Errors that are not *InvalidInputError are returned unchanged.
func WithLocation(err error, query string, index int) error {
	var iie *InvalidInputError
	if !errors.As(err, &iie) {
		return err
	}
	located := *iie
	located.Query = query
	located.Index = index
	return &located
}
