package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Supported ORDER_STORE values.
const (
	storeMemory    = "memory"
	storePostgres  = "postgres"
	storeRedis     = "redis"
	storeFirestore = "firestore"
)

// Config is read from the environment once at startup.
type Config struct {
	Addr               string
	MetricsAddr        string
	WebhookPath        string
	WebhookSecret      string
	Store              string
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	RedisKeyPrefix     string
	FirestoreProjectID string
	LogLevel           string
	LogFormat          string
	RateLimit          int
	RateLimitWindow    time.Duration
	ShutdownTimeout    time.Duration
}

func loadConfig(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Addr:               env("ORDERHOOK_ADDR", ":8080"),
		MetricsAddr:        env("METRICS_ADDR", ":9090"),
		WebhookPath:        env("WEBHOOK_PATH", "/api/webhooks"),
		WebhookSecret:      getenv("STRIPE_WEBHOOK_SECRET"),
		Store:              strings.ToLower(env("ORDER_STORE", storeMemory)),
		DatabaseURL:        env("DATABASE_URL", ""),
		RedisAddr:          env("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getenv("REDIS_PASSWORD"),
		RedisKeyPrefix:     env("REDIS_KEY_PREFIX", ""),
		FirestoreProjectID: env("FIRESTORE_PROJECT_ID", ""),
		LogLevel:           env("LOG_LEVEL", "info"),
		LogFormat:          strings.ToLower(env("LOG_FORMAT", "json")),
	}

	var err error
	if cfg.RateLimit, err = intEnv(env("WEBHOOK_RATE_LIMIT", "0")); err != nil {
		return nil, fmt.Errorf("WEBHOOK_RATE_LIMIT: %w", err)
	}
	if cfg.RateLimitWindow, err = time.ParseDuration(env("WEBHOOK_RATE_LIMIT_WINDOW", "1m")); err != nil {
		return nil, fmt.Errorf("WEBHOOK_RATE_LIMIT_WINDOW: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(env("SHUTDOWN_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func intEnv(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative, got %d", n)
	}
	return n, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case storeMemory, storeRedis:
	case storePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when ORDER_STORE=postgres")
		}
	case storeFirestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required when ORDER_STORE=firestore")
		}
	default:
		return fmt.Errorf("unknown ORDER_STORE %q (want memory, postgres, redis or firestore)", c.Store)
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	if !strings.HasPrefix(c.WebhookPath, "/") {
		return fmt.Errorf("WEBHOOK_PATH must start with /, got %q", c.WebhookPath)
	}
	return nil
}
