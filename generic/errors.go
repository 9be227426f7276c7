/*
errors.go - Centralized error types for the KPI engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every rejection happens before any write: reject-then-write, never
  write-then-validate.

ERROR CATEGORIES:
  1. Validation errors - malformed keys, unknown KPI, missing fields
  2. Permission errors - caller may not write this KPI/period type
  3. Deadline errors - non-privileged submission past the due date
  4. Lookup errors - missing records on read paths

  Non-numeric values met during aggregation are NOT errors: they count as
  zero and aggregation proceeds.

USAGE:
  if errors.Is(err, generic.ErrDeadlinePassed) {
      // tell the submitter to ask an administrator
  }

SEE ALSO:
  - period.go: EntryState (deadline decision)
  - kpi/tracker.go: Raises these errors
  - api/handlers.go: Maps them to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when input is malformed or refers to
	// something that does not exist.
	ErrValidation = errors.New("validation failed")

	// ErrPermission is returned when a non-privileged caller acts on a KPI
	// they do not own, or on an admin-only period type.
	ErrPermission = errors.New("permission denied")

	// ErrDeadlinePassed is returned when a non-privileged caller submits
	// after the period's due date.
	ErrDeadlinePassed = errors.New("deadline has passed")

	// ErrNotFound is returned by read paths when a record is missing.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PermissionError provides details about a rejected caller.
type PermissionError struct {
	CallerID string
	KPIID    KPIID
	Action   string
}

func (e *PermissionError) Error() string {
	caller := e.CallerID
	if caller == "" {
		caller = "anonymous caller"
	}
	if e.KPIID == "" {
		return fmt.Sprintf("permission denied: %s may not %s", caller, e.Action)
	}
	return fmt.Sprintf("permission denied: %s may not %s on kpi %s", caller, e.Action, e.KPIID)
}

func (e *PermissionError) Unwrap() error {
	return ErrPermission
}

// DeadlineError provides details about a late submission.
type DeadlineError struct {
	PeriodType PeriodType
	PeriodKey  string
	Due        TimePoint
}

func (e *DeadlineError) Error() string {
	return fmt.Sprintf("deadline has passed for %s period %s (due %s)", e.PeriodType, e.PeriodKey, e.Due)
}

func (e *DeadlineError) Unwrap() error {
	return ErrDeadlinePassed
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input
// or a rejected caller. Such errors are surfaced verbatim.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrPermission) ||
		errors.Is(err, ErrDeadlinePassed)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
