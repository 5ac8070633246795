package session

import "errors"

// Validation failures. They are returned before any state change.
var (
	ErrAuthRequired      = errors.New("sign-in required")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidPayment    = errors.New("invalid payment details")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrTooLate           = errors.New("appointments can only be changed at least 24 hours in advance")
	ErrAppointmentClosed = errors.New("appointment can no longer be changed")
	ErrClosed            = errors.New("session store closed")
)
