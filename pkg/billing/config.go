package billing

import (
	"time"

	"github.com/mihaimyh/orderhook/pkg/orders"
)

// DefaultMaxBodyBytes bounds how much of a webhook request body is read.
const DefaultMaxBodyBytes int64 = 256 * 1024

// Config defines the standard configuration all providers should accept
type Config struct {
	// Storage is the order store updated by handled events (required)
	Storage orders.Storage

	// WebhookSecret is the shared signing secret used to verify incoming
	// events. It is not validated at construction: an empty secret makes
	// every request fail verification.
	WebhookSecret string

	// Logger receives server-side error detail that is never returned to
	// the caller. If nil, a zerolog logger writing to stderr is used.
	Logger orders.Logger

	// Metrics is an optional metrics collector for webhook processing.
	// If nil, metrics will be silently ignored (no-op).
	// Use billing/metrics/prometheus.NewMetrics for Prometheus metrics.
	Metrics Metrics

	// MaxBodyBytes limits the request body size. Default: DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// RateLimit is the maximum number of webhook requests per client IP
	// within RateLimitWindow. Zero disables rate limiting.
	RateLimit int

	// RateLimitWindow is the rate limiting window. Default: one minute.
	RateLimitWindow time.Duration
}
