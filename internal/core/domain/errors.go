package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested record was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedDeepLink indicates a start argument carried the deep-link
	// prefix but no valid user identity after it
	ErrMalformedDeepLink = errors.New("malformed deep link")

	// ErrInvariantViolation indicates a stored authorization record breaks the
	// token/username pairing
	ErrInvariantViolation = errors.New("authorization record invariant violated")

	// ErrNotAuthenticated indicates the user has not completed authorization
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrLockTimeout indicates the per-user lock could not be acquired in time
	ErrLockTimeout = errors.New("lock acquisition timed out")

	// ErrServiceUnavailable indicates a backing service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
