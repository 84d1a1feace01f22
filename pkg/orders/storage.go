package orders

import "context"

// Storage is implemented by every order backend.
type Storage interface {
	// GetOrder returns the order with its addresses resolved.
	// Returns ErrOrderNotFound if the order does not exist.
	GetOrder(ctx context.Context, orderID string) (*Order, error)

	// MarkOrderPaid sets IsPaid and creates fresh billing and shipping
	// address records in one atomic write. Nothing is written when the
	// order does not exist (ErrOrderNotFound). Applying the same update
	// twice creates a second pair of addresses.
	MarkOrderPaid(ctx context.Context, update *PaymentUpdate) (*Order, error)
}
