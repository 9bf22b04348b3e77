// Package common defines the sentinel errors shared across the service.
// Callers should use errors.Is to match these values; specific reasons are
// attached by wrapping, e.g. fmt.Errorf("%w: size exceeds ceiling", ErrValidation).
package common

import "errors"

var (
	// Request-shape errors. Never retryable as-is: the caller must change
	// the request (different size, type or class).
	ErrValidation = errors.New("validation failed")

	// Quota errors. Retryable only after the window rolls over.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// Confirmation errors. Retryable: the caller should redo the physical
	// upload (or wait for replication) and confirm again.
	ErrObjectNotFound = errors.New("object not found")
	ErrSizeMismatch   = errors.New("size mismatch")

	// Lookup / permission errors.
	ErrNotFound       = errors.New("not found")
	ErrNotOwner       = errors.New("not owner")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrAssetNotActive = errors.New("asset not active")

	// Identity token errors (tokens are issued by the external auth provider).
	ErrInvalidToken = errors.New("invalid token")

	// Object-store or signing failures. Retryable with backoff.
	ErrInfrastructure = errors.New("infrastructure error")
)
