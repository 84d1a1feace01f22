package orders

import "errors"

var (
	// ErrOrderNotFound is returned when the order row does not exist
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidPaymentUpdate is returned when a PaymentUpdate is incomplete
	ErrInvalidPaymentUpdate = errors.New("invalid payment update")
)
