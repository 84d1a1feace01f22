// Package orders defines the order and address model touched by the checkout
// webhook, and the Storage contract its backends implement.
package orders

import (
	"fmt"
	"time"
)

// AddressInput holds the fields needed to create an address record.
// State is the only optional field.
type AddressInput struct {
	Name       string  `json:"name"`
	Street     string  `json:"street"`
	City       string  `json:"city"`
	State      *string `json:"state,omitempty"`
	PostalCode string  `json:"postalCode"`
	Country    string  `json:"country"`
}

// Validate reports the first missing required field.
func (a AddressInput) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"name", a.Name},
		{"street", a.Street},
		{"city", a.City},
		{"postalCode", a.PostalCode},
		{"country", a.Country},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%w: address %s is required", ErrInvalidPaymentUpdate, f.name)
		}
	}
	return nil
}

// Address is a persisted address. It is created once and never mutated.
type Address struct {
	ID string `json:"id"`
	AddressInput
	CreatedAt time.Time `json:"createdAt"`
}

// Order is the externally owned order row.
type Order struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId,omitempty"`
	IsPaid            bool      `json:"isPaid"`
	BillingAddressID  string    `json:"billingAddressId,omitempty"`
	ShippingAddressID string    `json:"shippingAddressId,omitempty"`
	BillingAddress    *Address  `json:"billingAddress,omitempty"`
	ShippingAddress   *Address  `json:"shippingAddress,omitempty"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// PaymentUpdate is the single write produced by a completed checkout.
//
// UserID is validated upstream and carried for logging only; backends do not
// read it.
type PaymentUpdate struct {
	OrderID         string
	UserID          string
	BillingAddress  AddressInput
	ShippingAddress AddressInput
}

// Validate checks the update before any backend writes it.
func (u *PaymentUpdate) Validate() error {
	if u == nil || u.OrderID == "" {
		return fmt.Errorf("%w: order id is required", ErrInvalidPaymentUpdate)
	}
	if err := u.BillingAddress.Validate(); err != nil {
		return fmt.Errorf("billing: %w", err)
	}
	if err := u.ShippingAddress.Validate(); err != nil {
		return fmt.Errorf("shipping: %w", err)
	}
	return nil
}
