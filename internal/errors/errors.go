// Package errors defines the typed errors shared by the persona test
// orchestrator. Callers import it as qaerrors and match with errors.As.
package errors

import (
	"fmt"
	"strings"
)

// NotFoundError reports a script, persona, or catalog that cannot be resolved.
type NotFoundError struct {
	// Resource is the kind of thing that was missing ("persona", "test script", "persona catalog")
	Resource string

	// ID is the identifier or path that was looked up
	ID string

	// Known optionally lists valid identifiers, to help the caller fix a typo.
	Known []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	if len(e.Known) > 0 {
		msg = fmt.Sprintf("%s (valid: %s)", msg, strings.Join(e.Known, ", "))
	}
	return msg
}

// ValidationError represents invalid input such as an empty test script or
// an unknown selection mode.
type ValidationError struct {
	Field      string
	Message    string
	Suggestion string

	// Cause is set when the invalid input was detected by a lookup,
	// e.g. a persona id missing from the catalog.
	Cause error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msg := "validation failed: " + e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	if e.Suggestion != "" {
		msg += " (" + e.Suggestion + ")"
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// RangeError is returned when a numeric argument falls outside [Min, Max].
type RangeError struct {
	Field string
	Value int
	Min   int
	Max   int
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	return fmt.Sprintf("%s must be between %d and %d, got %d", e.Field, e.Min, e.Max, e.Value)
}

// CollaboratorError wraps a failure raised by an agent collaborator
// (subject, tester or judge).
type CollaboratorError struct {
	Role  string
	Cause error
}

// Error implements the error interface.
func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s agent failed: %v", e.Role, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CollaboratorError) Unwrap() error {
	return e.Cause
}

// ParseError reports content that could not be interpreted as the expected
// structure, e.g. judge output with no usable JSON object.
type ParseError struct {
	Source  string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := fmt.Sprintf("cannot parse %s: %s", e.Source, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}
