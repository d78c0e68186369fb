// Package common defines shared constants and sentinel errors used across
// the gateway. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Request-level errors, rejected before any mutation.
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConfiguration marks a zone that cannot serve transfers (missing
	// bucket URI or credentials). Fatal to the request, never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrInternalConsistency marks a persisted record that failed schema
	// validation on read. Never swallowed: a malformed stored record is a
	// correctness bug upstream.
	ErrInternalConsistency = errors.New("internal consistency error")

	// Generic internal failure.
	ErrInternal = errors.New("internal error")
)
