package errors

import "errors"

var (
	// ErrNotFound is returned when no link matches the given ID or token.
	ErrNotFound = errors.New("link not found")

	// ErrInvalidID is returned when an ID is not a valid ObjectID hex string.
	ErrInvalidID = errors.New("invalid link ID")

	// ErrQuotaExhausted is returned when a conditional quota decrement matches
	// no document, meaning remaining_bookings already hit zero.
	ErrQuotaExhausted = errors.New("link booking quota exhausted")
)
