// Package http provides net/http helpers for mounting billing webhook handlers
package http

import (
	"net/http"
	"time"

	"github.com/mihaimyh/orderhook/pkg/billing"
	"github.com/mihaimyh/orderhook/pkg/orders"
)

// DefaultPath is the route the webhook is mounted on when Config.Path is empty
const DefaultPath = "/api/webhooks"

// Config holds mount configuration shared by every router adapter
type Config struct {
	// Provider is the billing provider whose webhook handler is mounted (required)
	Provider billing.Provider

	// Path is the route path
	// Default: /api/webhooks
	Path string
}

// WebhookPath returns the configured path or DefaultPath
func (c Config) WebhookPath() string {
	if c.Path == "" {
		return DefaultPath
	}
	return c.Path
}

// Mount registers the provider's webhook handler for POST requests on mux.
func Mount(mux *http.ServeMux, config Config) {
	if config.Provider == nil {
		panic("middleware/http: Provider is required")
	}
	mux.Handle(http.MethodPost+" "+config.WebhookPath(), config.Provider.WebhookHandler())
}

// statusRecorder captures the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// AccessLog logs one line per request. 5xx responses are logged at warn level.
func AccessLog(logger orders.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = &orders.NoopLogger{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			fields := []orders.Field{
				{Key: "method", Value: r.Method},
				{Key: "path", Value: r.URL.Path},
				{Key: "status", Value: status},
				{Key: "bytes", Value: rec.bytes},
				{Key: "duration", Value: time.Since(start)},
				{Key: "remote_addr", Value: r.RemoteAddr},
			}
			if status >= http.StatusInternalServerError {
				logger.Warn("request completed", fields...)
				return
			}
			logger.Info("request completed", fields...)
		})
	}
}
