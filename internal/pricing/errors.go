package pricing

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a missing or malformed pricing table row. It is
// never retried and is surfaced to the caller verbatim.
type ConfigurationError struct {
	Entity string
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("pricing configuration error: %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("pricing configuration error: %s %q: %s", e.Entity, e.Key, e.Reason)
}

// InvalidSelectionError reports caller input that does not fit the service.
type InvalidSelectionError struct {
	Field  string
	Reason string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("invalid selection: %s: %s", e.Field, e.Reason)
}

// InvariantError is a programming error: arithmetic produced a value the
// pipeline can never legitimately produce.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return "pricing invariant violated: " + e.Reason
}

func newConfigurationError(entity, key, reason string) error {
	return &ConfigurationError{Entity: entity, Key: key, Reason: reason}
}

func newInvalidSelection(field, reason string) error {
	return &InvalidSelectionError{Field: field, Reason: reason}
}

func newInvariantError(reason string) error {
	return &InvariantError{Reason: reason}
}

func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

func IsInvalidSelection(err error) bool {
	var target *InvalidSelectionError
	return errors.As(err, &target)
}

func IsInvariant(err error) bool {
	var target *InvariantError
	return errors.As(err, &target)
}
