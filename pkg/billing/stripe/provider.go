package stripe

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v83/webhook"

	"github.com/mihaimyh/orderhook/pkg/billing"
	"github.com/mihaimyh/orderhook/pkg/billing/internal"
	"github.com/mihaimyh/orderhook/pkg/orders"
	zerologadapter "github.com/mihaimyh/orderhook/pkg/orders/logger/zerolog"
)

const (
	providerName           = "stripe"
	signatureHeader        = "Stripe-Signature"
	defaultRateLimitWindow = time.Minute
)

// Config extends billing.Config with Stripe-specific options
type Config struct {
	billing.Config // Base config (Storage, WebhookSecret, etc.)

	// Tolerance is the maximum age of a signed event timestamp.
	// Default: webhook.DefaultTolerance (5 minutes)
	Tolerance time.Duration
}

// Provider implements the billing.Provider interface for Stripe
type Provider struct {
	storage       orders.Storage
	webhookSecret string
	tolerance     time.Duration
	maxBodyBytes  int64
	rateLimiter   *internal.RateLimiter
	logger        orders.Logger
	metrics       billing.Metrics
}

var _ billing.Provider = (*Provider)(nil)

// NewProvider creates a new Stripe webhook provider
func NewProvider(config Config) (*Provider, error) {
	if config.Storage == nil {
		return nil, billing.ErrProviderNotConfigured
	}

	logger := config.Logger
	if logger == nil {
		zlog := zerolog.New(os.Stderr).With().Timestamp().Str("provider", providerName).Logger()
		logger = zerologadapter.NewLogger(&zlog)
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = &billing.NoopMetrics{}
	}

	tolerance := config.Tolerance
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}

	maxBodyBytes := config.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = billing.DefaultMaxBodyBytes
	}

	var limiter *internal.RateLimiter
	if config.RateLimit > 0 {
		window := config.RateLimitWindow
		if window <= 0 {
			window = defaultRateLimitWindow
		}
		limiter = internal.NewRateLimiter(config.RateLimit, window)
	}

	secret := strings.TrimSpace(config.WebhookSecret)
	if secret == "" {
		logger.Warn("stripe webhook secret is empty; every event will fail verification")
	}

	return &Provider{
		storage:       config.Storage,
		webhookSecret: secret,
		tolerance:     tolerance,
		maxBodyBytes:  maxBodyBytes,
		rateLimiter:   limiter,
		logger:        logger,
		metrics:       metrics,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return providerName
}

// WebhookHandler returns the HTTP handler for Stripe webhooks
func (p *Provider) WebhookHandler() http.Handler {
	handler := http.HandlerFunc(p.handleWebhook)
	if p.rateLimiter == nil {
		return handler
	}
	return p.rateLimiter.Middleware(handler)
}

// ProcessWebhook implements billing.Provider
func (p *Provider) ProcessWebhook(ctx context.Context, payload []byte, signature string) ([]byte, error) {
	event, err := p.process(ctx, payload, signature)
	if err != nil {
		return nil, err
	}
	return event.Raw(), nil
}

// HandleEvent applies an already verified event. Only checkout.session.completed
// changes state; every other event is a no-op.
func (p *Provider) HandleEvent(ctx context.Context, event Event) error {
	switch e := event.(type) {
	case *CheckoutSessionCompleted:
		return p.handleCheckoutSessionCompleted(ctx, e)
	default:
		return nil
	}
}
