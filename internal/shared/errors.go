package shared

import "errors"

var (
	// ErrValidation indicates a malformed or contradictory request, rejected before any mutation.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates the resource does not exist for the tenant.
	ErrNotFound = errors.New("not found")
	// ErrTenantMismatch indicates a cross-tenant access attempt.
	ErrTenantMismatch = errors.New("tenant mismatch")
	// ErrConflict indicates an optimistic or serialization conflict; callers may retry.
	ErrConflict = errors.New("concurrency conflict")
	// ErrInsufficientStock indicates a stock policy violation.
	ErrInsufficientStock = errors.New("insufficient stock")
)
