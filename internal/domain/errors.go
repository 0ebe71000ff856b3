package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBackendTimeout is returned when a backend call exceeds its deadline.
	ErrBackendTimeout = errors.New("backend request timed out")
	// ErrBackendUnavailable is returned when the backend cannot be reached.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrNotFound is returned when a requested item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCacheMiss is returned by report caches when nothing is cached under a key.
	ErrCacheMiss = errors.New("cache miss")
	// ErrInvalidInput marks caller mistakes that should surface as 400.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDisabled is returned by features whose storage is not configured.
	ErrDisabled = errors.New("feature disabled")
)

// BackendError carries the error message the backend returned with a non-2xx status.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}
