package main

import (
	"context"
	"fmt"

	gcfirestore "cloud.google.com/go/firestore"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mihaimyh/orderhook/pkg/orders"
	"github.com/mihaimyh/orderhook/storage/firestore"
	"github.com/mihaimyh/orderhook/storage/memory"
	"github.com/mihaimyh/orderhook/storage/postgres"
	"github.com/mihaimyh/orderhook/storage/redis"
)

// openStore connects the configured order store. The returned close function
// is never nil.
func openStore(ctx context.Context, cfg *Config, logger orders.Logger) (orders.Storage, func(), error) {
	noop := func() {}

	switch cfg.Store {
	case storePostgres:
		pgCfg := postgres.DefaultConfig()
		pgCfg.ConnectionString = cfg.DatabaseURL
		store, err := postgres.New(ctx, pgCfg)
		if err != nil {
			return nil, noop, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, noop, fmt.Errorf("failed to migrate: %w", err)
		}
		logger.Info("using postgres order store")
		return store, store.Close, nil

	case storeRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		store, err := redis.New(client, redis.Config{KeyPrefix: cfg.RedisKeyPrefix})
		if err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		logger.Info("using redis order store", orders.Field{Key: "addr", Value: cfg.RedisAddr})
		return store, func() { _ = client.Close() }, nil

	case storeFirestore:
		client, err := gcfirestore.NewClient(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create firestore client: %w", err)
		}
		store, err := firestore.New(client, firestore.Config{})
		if err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		logger.Info("using firestore order store", orders.Field{Key: "project_id", Value: cfg.FirestoreProjectID})
		return store, func() { _ = client.Close() }, nil

	default:
		logger.Warn("using in-memory order store; orders are lost on restart")
		return memory.New(), noop, nil
	}
}
