package errors

import "errors"

var (
	// ErrNotFound is returned when no booking matches the given ID.
	ErrNotFound = errors.New("booking not found")

	// ErrInvalidID is returned when an ID is not a valid ObjectID hex string.
	ErrInvalidID = errors.New("invalid booking ID")

	// ErrLockHeld is returned when another submission already holds the
	// advisory lock for the same slot.
	ErrLockHeld = errors.New("booking lock already held")

	// ErrSlotTaken is returned when the unique slot index rejects an insert,
	// meaning a non-cancelled booking already occupies the slot.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrInvalidTransition is returned when a status change is not allowed by
	// the booking state machine.
	ErrInvalidTransition = errors.New("invalid booking status transition")
)
