// Package postgres provides a PostgreSQL implementation of the orders.Storage interface.
// MarkOrderPaid runs the two address inserts and the order update in a single transaction.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mihaimyh/orderhook/pkg/orders"
)

//go:embed schema.sql
var schema string

// Storage implements orders.Storage using PostgreSQL
type Storage struct {
	pool   *pgxpool.Pool
	config Config
}

// Config holds PostgreSQL storage configuration
type Config struct {
	// ConnectionString is the PostgreSQL connection string
	ConnectionString string

	// Pool configuration
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// New creates a new PostgreSQL storage adapter
func New(ctx context.Context, config Config) (*Storage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required")
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	if config.MinConns > 0 {
		poolConfig.MinConns = config.MinConns
	}
	if config.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = config.MaxConnLifetime
	}
	if config.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = config.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Storage{pool: pool, config: config}, nil
}

// Migrate creates the orders and address tables if they do not exist.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the PostgreSQL connection pool
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks database connectivity
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// GetOrder implements orders.Storage
func (s *Storage) GetOrder(ctx context.Context, orderID string) (*orders.Order, error) {
	var (
		order                 orders.Order
		userID                *string
		billingID, shippingID *string
	)

	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, is_paid, billing_address_id::text, shipping_address_id::text, updated_at
			FROM orders WHERE id = $1`,
		orderID).Scan(&order.ID, &userID, &order.IsPaid, &billingID, &shippingID, &order.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if userID != nil {
		order.UserID = *userID
	}
	if billingID != nil {
		order.BillingAddressID = *billingID
		if order.BillingAddress, err = s.getAddress(ctx, "billing_addresses", *billingID); err != nil {
			return nil, err
		}
	}
	if shippingID != nil {
		order.ShippingAddressID = *shippingID
		if order.ShippingAddress, err = s.getAddress(ctx, "shipping_addresses", *shippingID); err != nil {
			return nil, err
		}
	}

	return &order, nil
}

func (s *Storage) getAddress(ctx context.Context, table, id string) (*orders.Address, error) {
	var addr orders.Address
	//nolint:gosec // table is one of two fixed names
	query := fmt.Sprintf(
		`SELECT id::text, name, street, city, state, postal_code, country, created_at FROM %s WHERE id = $1`, table)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&addr.ID,
		&addr.Name,
		&addr.Street,
		&addr.City,
		&addr.State,
		&addr.PostalCode,
		&addr.Country,
		&addr.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s row %s: %w", table, id, err)
	}
	return &addr, nil
}

// MarkOrderPaid implements orders.Storage
func (s *Storage) MarkOrderPaid(ctx context.Context, update *orders.PaymentUpdate) (*orders.Order, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		//nolint:errcheck // Rollback error is safe to ignore if transaction was committed
		_ = tx.Rollback(ctx)
	}()

	now := time.Now().UTC()
	billingID, err := insertAddress(ctx, tx, "billing_addresses", update.BillingAddress, now)
	if err != nil {
		return nil, err
	}
	shippingID, err := insertAddress(ctx, tx, "shipping_addresses", update.ShippingAddress, now)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE orders
			SET is_paid = true, billing_address_id = $2, shipping_address_id = $3, updated_at = $4
			WHERE id = $1`,
		update.OrderID, billingID, shippingID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, orders.ErrOrderNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.GetOrder(ctx, update.OrderID)
}

func insertAddress(ctx context.Context, tx pgx.Tx, table string, in orders.AddressInput, now time.Time) (string, error) {
	id := uuid.NewString()
	//nolint:gosec // table is one of two fixed names
	query := fmt.Sprintf(
		`INSERT INTO %s (id, name, street, city, state, postal_code, country, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, table)
	if _, err := tx.Exec(ctx, query, id, in.Name, in.Street, in.City, in.State, in.PostalCode, in.Country, now); err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return id, nil
}
