package club

import "errors"

// Registration and credential errors. Store-level failures (ErrNotFound,
// ErrConcurrencyConflict, ErrPermissionDenied) pass through from the
// ledger package unchanged.
var (
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrMemberExists   = errors.New("member account already exists")
	ErrSwishInUse     = errors.New("swish number is already in use")
	ErrWeakPassword   = errors.New("password is too short")
	ErrInvalidCode    = errors.New("wrong email address or one-time code")
	ErrBadCredentials = errors.New("no such member or invalid password")
	ErrNotEnabled     = errors.New("member account has not been enabled")
	ErrDisabled       = errors.New("member account is disabled")
)
