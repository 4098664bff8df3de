package model

import "errors"

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is returned when an entity's state is internally
	// inconsistent, e.g. recurrence data that contradicts IsRecurring.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrConcurrencyConflict is returned when a per-day stat upsert lost the
	// race repeatedly and the retry budget is exhausted.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	// ErrSchedulingFailure marks a deferred reset that could not be
	// persisted. It is logged for reconciliation, never fatal.
	ErrSchedulingFailure = errors.New("scheduling failure")
	// ErrForbidden is returned when the acting user lacks ownership or the
	// admin role required by the operation.
	ErrForbidden = errors.New("forbidden")
)
