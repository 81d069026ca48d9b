package model

import "errors"

// Error taxonomy shared by the booking core.  Lower layers wrap these
// sentinels with context using fmt.Errorf("...: %w") so that handlers can
// still match them with errors.Is and translate them into HTTP statuses.
var (
	// ErrNotFound is returned when an entity id is absent.
	ErrNotFound = errors.New("not found")
	// ErrSeatUnavailable is returned by hold/confirm on a taken or never
	// held seat.
	ErrSeatUnavailable = errors.New("seat unavailable")
	// ErrInvalidInput covers malformed dates, unknown enums and missing
	// required fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidState is returned when an operation is attempted against
	// an entity in the wrong status.
	ErrInvalidState = errors.New("invalid state")
	// ErrExpired is returned when an operation is attempted past the
	// entity's expiration.
	ErrExpired = errors.New("expired")
	// ErrAlreadyCancelled is returned when cancelling something twice.
	ErrAlreadyCancelled = errors.New("already cancelled")
	// ErrPartialCommit signals that some records of a booking were written
	// and a later write failed.  The seats have been released and the
	// written records compensated where possible.
	ErrPartialCommit = errors.New("partial commit")
)
