package apperrors

import "errors"

// Standard application errors
var (
	// ErrRateLimited is returned when a caller exceeds its request quota for
	// a rate-limited operation. It is the only error the detection engine
	// surfaces to callers; everything network-shaped is absorbed into
	// negative probe results.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidInput is returned when the input provided by the client is invalid.
	ErrInvalidInput = errors.New("invalid input provided")

	// ErrExternalServiceFailure is returned when an interaction with an external service fails.
	ErrExternalServiceFailure = errors.New("external service interaction failed")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("operation timed out")

	// ErrInternal is returned for unexpected internal system errors.
	ErrInternal = errors.New("internal system error")
)
