// Package firestore provides a Firestore implementation of the orders.Storage interface.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mihaimyh/orderhook/pkg/orders"
)

// Storage implements orders.Storage using Google Cloud Firestore
type Storage struct {
	client                      *firestore.Client
	ordersCollection            string
	billingAddressesCollection  string
	shippingAddressesCollection string
}

// Config holds Firestore storage configuration
type Config struct {
	// OrdersCollection is the Firestore collection for orders
	// Default: "orders"
	OrdersCollection string

	// BillingAddressesCollection is the Firestore collection for billing addresses
	// Default: "billing_addresses"
	BillingAddressesCollection string

	// ShippingAddressesCollection is the Firestore collection for shipping addresses
	// Default: "shipping_addresses"
	ShippingAddressesCollection string
}

// New creates a new Firestore storage adapter
func New(client *firestore.Client, config Config) (*Storage, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client is required")
	}

	if config.OrdersCollection == "" {
		config.OrdersCollection = "orders"
	}
	if config.BillingAddressesCollection == "" {
		config.BillingAddressesCollection = "billing_addresses"
	}
	if config.ShippingAddressesCollection == "" {
		config.ShippingAddressesCollection = "shipping_addresses"
	}

	return &Storage{
		client:                      client,
		ordersCollection:            config.OrdersCollection,
		billingAddressesCollection:  config.BillingAddressesCollection,
		shippingAddressesCollection: config.ShippingAddressesCollection,
	}, nil
}

// CreateOrder stores an unpaid order document. Intended for seeding and tests.
func (s *Storage) CreateOrder(ctx context.Context, orderID, userID string) error {
	if orderID == "" {
		return fmt.Errorf("order id is required")
	}
	_, err := s.client.Collection(s.ordersCollection).Doc(orderID).Set(ctx, map[string]interface{}{
		"userId":    userID,
		"isPaid":    false,
		"updatedAt": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetOrder implements orders.Storage
func (s *Storage) GetOrder(ctx context.Context, orderID string) (*orders.Order, error) {
	snap, err := s.client.Collection(s.ordersCollection).Doc(orderID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, orders.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if !snap.Exists() {
		return nil, orders.ErrOrderNotFound
	}

	data := snap.Data()
	order := &orders.Order{
		ID:                orderID,
		UserID:            getString(data, "userId"),
		IsPaid:            getBool(data, "isPaid"),
		BillingAddressID:  getString(data, "billingAddressId"),
		ShippingAddressID: getString(data, "shippingAddressId"),
		UpdatedAt:         getTime(data, "updatedAt"),
	}

	if order.BillingAddressID != "" {
		order.BillingAddress, err = s.getAddress(ctx, s.billingAddressesCollection, order.BillingAddressID)
		if err != nil {
			return nil, err
		}
	}
	if order.ShippingAddressID != "" {
		order.ShippingAddress, err = s.getAddress(ctx, s.shippingAddressesCollection, order.ShippingAddressID)
		if err != nil {
			return nil, err
		}
	}

	return order, nil
}

func (s *Storage) getAddress(ctx context.Context, collection, id string) (*orders.Address, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}

	data := snap.Data()
	addr := &orders.Address{
		ID: id,
		AddressInput: orders.AddressInput{
			Name:       getString(data, "name"),
			Street:     getString(data, "street"),
			City:       getString(data, "city"),
			PostalCode: getString(data, "postalCode"),
			Country:    getString(data, "country"),
		},
		CreatedAt: getTime(data, "createdAt"),
	}
	if state, ok := data["state"].(string); ok {
		addr.State = &state
	}
	return addr, nil
}

// MarkOrderPaid implements orders.Storage
func (s *Storage) MarkOrderPaid(ctx context.Context, update *orders.PaymentUpdate) (*orders.Order, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	orderRef := s.client.Collection(s.ordersCollection).Doc(update.OrderID)
	billingRef := s.client.Collection(s.billingAddressesCollection).Doc(uuid.NewString())
	shippingRef := s.client.Collection(s.shippingAddressesCollection).Doc(uuid.NewString())
	now := time.Now().UTC()

	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		// Firestore requires all reads before writes
		snap, err := tx.Get(orderRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return orders.ErrOrderNotFound
			}
			return err
		}
		if !snap.Exists() {
			return orders.ErrOrderNotFound
		}

		if err := tx.Create(billingRef, addressData(update.BillingAddress, now)); err != nil {
			return err
		}
		if err := tx.Create(shippingRef, addressData(update.ShippingAddress, now)); err != nil {
			return err
		}
		return tx.Update(orderRef, []firestore.Update{
			{Path: "isPaid", Value: true},
			{Path: "billingAddressId", Value: billingRef.ID},
			{Path: "shippingAddressId", Value: shippingRef.ID},
			{Path: "updatedAt", Value: now},
		})
	})
	if errors.Is(err, orders.ErrOrderNotFound) {
		return nil, orders.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}

	return s.GetOrder(ctx, update.OrderID)
}

func addressData(in orders.AddressInput, now time.Time) map[string]interface{} {
	data := map[string]interface{}{
		"name":       in.Name,
		"street":     in.Street,
		"city":       in.City,
		"postalCode": in.PostalCode,
		"country":    in.Country,
		"createdAt":  now,
	}
	if in.State != nil {
		data["state"] = *in.State
	}
	return data
}

func getString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func getBool(data map[string]interface{}, key string) bool {
	v, _ := data[key].(bool)
	return v
}

func getTime(data map[string]interface{}, key string) time.Time {
	if v, ok := data[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}
