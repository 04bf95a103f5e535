package domain

import "errors"

var (
	// ErrProviderUnavailable means every configured endpoint for a chain failed to resolve.
	// It is absorbed inside the engine and surfaces as a negative probe result.
	ErrProviderUnavailable = errors.New("no provider available for chain")

	// ErrProbeFailed means a single remote probe call errored or timed out.
	ErrProbeFailed = errors.New("probe call failed")

	// ErrCacheFailure means an internal error occurred while interacting with the cache (not a cache miss).
	ErrCacheFailure = errors.New("cache operation failed")
)
