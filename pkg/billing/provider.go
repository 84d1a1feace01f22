package billing

import (
	"context"
	"net/http"
)

// Provider is implemented by a payment provider's webhook integration.
type Provider interface {
	// Name returns the provider name (e.g., "stripe")
	Name() string

	// WebhookHandler returns the HTTP handler that verifies and applies
	// provider-pushed events.
	WebhookHandler() http.Handler

	// ProcessWebhook verifies a raw payload against its signature header and
	// applies it. It is the transport-independent core of WebhookHandler and
	// returns the verified event JSON on success.
	ProcessWebhook(ctx context.Context, payload []byte, signature string) ([]byte, error)
}
