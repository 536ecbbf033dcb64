/*
errors.go - Centralized error taxonomy for the accounting core

PURPOSE:
  All failure kinds in one place. Validation failures are recovered at the
  component boundary and surfaced as structured errors; nothing here is
  fatal to the process.

ERROR CATEGORIES:
  1. Validation errors - bad action, unknown catalog reference, bad amount
  2. Store errors      - missing documents, optimistic-lock conflicts
  3. Authorization     - non-admin attempting an admin-only mutation

USAGE:
  Callers classify with errors.Is or the helpers below:

    if ledger.IsConflict(err) {
        // someone else saved first; re-read and retry
    }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAction is returned for an unrecognized action discriminator.
	ErrInvalidAction = errors.New("invalid action")

	// ErrInvalidReference is returned when a beverage, purchase-method or
	// payment-method identifier is not in the configured catalogs.
	ErrInvalidReference = errors.New("invalid catalog reference")

	// ErrInvalidAmount is returned for an unparsable or out-of-range amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNotFound is returned when a referenced member, event or snapshot
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConcurrencyConflict is returned when an optimistic-lock revision
	// mismatch is detected, including two racing snapshot creations for the
	// same date.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrPermissionDenied is returned when a non-admin attempts an
	// admin-only mutation.
	ErrPermissionDenied = errors.New("permission denied")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidActionError reports an unknown action discriminator.
type InvalidActionError struct {
	Action string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action %q", e.Action)
}

func (e *InvalidActionError) Unwrap() error { return ErrInvalidAction }

// InvalidReferenceError reports a failed catalog lookup.
type InvalidReferenceError struct {
	Kind       string // "beverage", "purchase", "payment"
	Identifier string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("no such %s %q", e.Kind, e.Identifier)
}

func (e *InvalidReferenceError) Unwrap() error { return ErrInvalidReference }

// InvalidAmountError reports an unparsable or out-of-range amount.
type InvalidAmountError struct {
	Input  string
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %q: %s", e.Input, e.Reason)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// NotFoundError reports a missing document.
type NotFoundError struct {
	Kind string // "member", "event", "snapshot"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no such %s %q", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrInvalidReference) ||
		errors.Is(err, ErrInvalidAmount)
}

// IsNotFound reports whether the error indicates a missing document.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether the error might succeed on retry after re-read.
func IsConflict(err error) bool { return errors.Is(err, ErrConcurrencyConflict) }

// IsPermissionDenied reports whether the caller lacked the admin role.
func IsPermissionDenied(err error) bool { return errors.Is(err, ErrPermissionDenied) }
