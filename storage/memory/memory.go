// Package memory provides an in-memory implementation of the orders.Storage interface.
// This implementation is primarily intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mihaimyh/orderhook/pkg/orders"
)

// Storage implements orders.Storage using in-memory maps
type Storage struct {
	mu                sync.RWMutex
	orders            map[string]*orders.Order
	billingAddresses  map[string]*orders.Address
	shippingAddresses map[string]*orders.Address
	now               func() time.Time
}

// New creates a new in-memory storage adapter
func New() *Storage {
	return &Storage{
		orders:            make(map[string]*orders.Order),
		billingAddresses:  make(map[string]*orders.Address),
		shippingAddresses: make(map[string]*orders.Address),
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// PutOrder inserts or replaces an order row. Address pointers on the order
// are ignored; only the ids are stored.
func (s *Storage) PutOrder(order *orders.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("invalid order")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orderCopy := *order
	orderCopy.BillingAddress = nil
	orderCopy.ShippingAddress = nil
	s.orders[order.ID] = &orderCopy
	return nil
}

// GetOrder implements orders.Storage
func (s *Storage) GetOrder(_ context.Context, orderID string) (*orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	return s.resolve(order), nil
}

// MarkOrderPaid implements orders.Storage
func (s *Storage) MarkOrderPaid(_ context.Context, update *orders.PaymentUpdate) (*orders.Order, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[update.OrderID]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}

	now := s.now()
	billing := &orders.Address{ID: uuid.NewString(), AddressInput: copyInput(update.BillingAddress), CreatedAt: now}
	shipping := &orders.Address{ID: uuid.NewString(), AddressInput: copyInput(update.ShippingAddress), CreatedAt: now}
	s.billingAddresses[billing.ID] = billing
	s.shippingAddresses[shipping.ID] = shipping

	order.IsPaid = true
	order.BillingAddressID = billing.ID
	order.ShippingAddressID = shipping.ID
	order.UpdatedAt = now

	return s.resolve(order), nil
}

// AddressCount returns the number of billing and shipping address records created so far.
func (s *Storage) AddressCount() (billing, shipping int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.billingAddresses), len(s.shippingAddresses)
}

// resolve returns a copy of order with its addresses attached. Caller holds the lock.
func (s *Storage) resolve(order *orders.Order) *orders.Order {
	orderCopy := *order
	if addr, ok := s.billingAddresses[order.BillingAddressID]; ok {
		addrCopy := *addr
		addrCopy.AddressInput = copyInput(addr.AddressInput)
		orderCopy.BillingAddress = &addrCopy
	}
	if addr, ok := s.shippingAddresses[order.ShippingAddressID]; ok {
		addrCopy := *addr
		addrCopy.AddressInput = copyInput(addr.AddressInput)
		orderCopy.ShippingAddress = &addrCopy
	}
	return &orderCopy
}

func copyInput(in orders.AddressInput) orders.AddressInput {
	if in.State != nil {
		state := *in.State
		in.State = &state
	}
	return in
}
