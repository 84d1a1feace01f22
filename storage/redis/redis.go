// Package redis provides a Redis implementation of the orders.Storage interface.
// MarkOrderPaid is a Lua script so the order check and all three writes are atomic.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mihaimyh/orderhook/pkg/orders"
)

const (
	fieldUserID     = "user_id"
	fieldIsPaid     = "is_paid"
	fieldBillingID  = "billing_address_id"
	fieldShippingID = "shipping_address_id"
	fieldUpdatedAt  = "updated_at"

	resultNotFound = "not_found"
)

// Storage implements orders.Storage using Redis
type Storage struct {
	client   redis.UniversalClient
	config   Config
	markPaid *redis.Script
}

// Config holds Redis storage configuration
type Config struct {
	// KeyPrefix is prepended to all Redis keys (default: "orderhook:")
	KeyPrefix string
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{KeyPrefix: "orderhook:"}
}

// New creates a new Redis storage adapter
// The client can be *redis.Client, *redis.ClusterClient, or *redis.Ring
func New(client redis.UniversalClient, config Config) (*Storage, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultConfig().KeyPrefix
	}

	return &Storage{
		client: client,
		config: config,
		markPaid: redis.NewScript(`
			local orderKey = KEYS[1]
			local billingKey = KEYS[2]
			local shippingKey = KEYS[3]

			if redis.call('EXISTS', orderKey) == 0 then
				return 'not_found'
			end

			redis.call('SET', billingKey, ARGV[1])
			redis.call('SET', shippingKey, ARGV[2])
			redis.call('HSET', orderKey,
				'is_paid', '1',
				'billing_address_id', ARGV[3],
				'shipping_address_id', ARGV[4],
				'updated_at', ARGV[5])

			return 'ok'
		`),
	}, nil
}

func (s *Storage) orderKey(id string) string {
	return s.config.KeyPrefix + "order:" + id
}

func (s *Storage) billingKey(id string) string {
	return s.config.KeyPrefix + "billing_address:" + id
}

func (s *Storage) shippingKey(id string) string {
	return s.config.KeyPrefix + "shipping_address:" + id
}

// CreateOrder stores an unpaid order row. Intended for seeding and tests.
func (s *Storage) CreateOrder(ctx context.Context, orderID, userID string) error {
	if orderID == "" {
		return fmt.Errorf("order id is required")
	}
	err := s.client.HSet(ctx, s.orderKey(orderID),
		fieldUserID, userID,
		fieldIsPaid, "0",
		fieldUpdatedAt, time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetOrder implements orders.Storage
func (s *Storage) GetOrder(ctx context.Context, orderID string) (*orders.Order, error) {
	fields, err := s.client.HGetAll(ctx, s.orderKey(orderID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if len(fields) == 0 {
		return nil, orders.ErrOrderNotFound
	}

	order := &orders.Order{
		ID:                orderID,
		UserID:            fields[fieldUserID],
		IsPaid:            fields[fieldIsPaid] == "1",
		BillingAddressID:  fields[fieldBillingID],
		ShippingAddressID: fields[fieldShippingID],
	}
	if ts := fields[fieldUpdatedAt]; ts != "" {
		if order.UpdatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
	}

	if order.BillingAddressID != "" {
		if order.BillingAddress, err = s.getAddress(ctx, s.billingKey(order.BillingAddressID)); err != nil {
			return nil, err
		}
	}
	if order.ShippingAddressID != "" {
		if order.ShippingAddress, err = s.getAddress(ctx, s.shippingKey(order.ShippingAddressID)); err != nil {
			return nil, err
		}
	}

	return order, nil
}

func (s *Storage) getAddress(ctx context.Context, key string) (*orders.Address, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("address %s missing", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}

	var addr orders.Address
	if err := json.Unmarshal(data, &addr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal address: %w", err)
	}
	return &addr, nil
}

// MarkOrderPaid implements orders.Storage
func (s *Storage) MarkOrderPaid(ctx context.Context, update *orders.PaymentUpdate) (*orders.Order, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	billing := orders.Address{ID: uuid.NewString(), AddressInput: update.BillingAddress, CreatedAt: now}
	shipping := orders.Address{ID: uuid.NewString(), AddressInput: update.ShippingAddress, CreatedAt: now}

	billingData, err := json.Marshal(billing)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal billing address: %w", err)
	}
	shippingData, err := json.Marshal(shipping)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	keys := []string{
		s.orderKey(update.OrderID),
		s.billingKey(billing.ID),
		s.shippingKey(shipping.ID),
	}
	result, err := s.markPaid.Run(ctx, s.client, keys,
		string(billingData),
		string(shippingData),
		billing.ID,
		shipping.ID,
		now.Format(time.RFC3339Nano),
	).Text()
	if err != nil {
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}
	if result == resultNotFound {
		return nil, orders.ErrOrderNotFound
	}

	return s.GetOrder(ctx, update.OrderID)
}
