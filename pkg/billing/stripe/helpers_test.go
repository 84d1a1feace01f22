package stripe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83/webhook"

	"github.com/mihaimyh/orderhook/pkg/billing"
	"github.com/mihaimyh/orderhook/pkg/orders"
	"github.com/mihaimyh/orderhook/storage/memory"
)

const (
	testWebhookSecret = "whsec_test_secret"
	testOrderID       = "o1"
	testUserID        = "u1"
	testEmail         = "ada@example.com"
)

// checkoutSession returns a complete checkout.session.completed data object.
func checkoutSession() map[string]interface{} {
	return map[string]interface{}{
		"id":     "cs_test_123",
		"object": "checkout.session",
		"customer_details": map[string]interface{}{
			"email": testEmail,
			"name":  "Ada Lovelace",
			"address": map[string]interface{}{
				"line1":       "1 Market St",
				"line2":       nil,
				"city":        "San Francisco",
				"state":       "CA",
				"postal_code": "94105",
				"country":     "US",
			},
		},
		"metadata": map[string]interface{}{
			"userId":  testUserID,
			"orderId": testOrderID,
		},
	}
}

func eventPayload(t *testing.T, eventType string, object map[string]interface{}) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":          "evt_test_123",
		"object":      "event",
		"api_version": "2020-08-27",
		"created":     time.Now().Unix(),
		"type":        eventType,
		"data":        map[string]interface{}{"object": object},
	})
	require.NoError(t, err)
	return payload
}

func sign(payload []byte, secret string, ts time.Time) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: ts,
	})
	return signed.Header
}

func signedRequest(payload []byte, secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", sign(payload, secret, time.Now()))
	return req
}

// recordingStorage wraps memory storage and counts writes.
type recordingStorage struct {
	*memory.Storage
	mu      sync.Mutex
	updates []*orders.PaymentUpdate
	failErr error
}

func (s *recordingStorage) MarkOrderPaid(ctx context.Context, u *orders.PaymentUpdate) (*orders.Order, error) {
	s.mu.Lock()
	s.updates = append(s.updates, u)
	failErr := s.failErr
	s.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}
	return s.Storage.MarkOrderPaid(ctx, u)
}

func (s *recordingStorage) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

func newTestStorage(t *testing.T) *recordingStorage {
	t.Helper()
	mem := memory.New()
	require.NoError(t, mem.PutOrder(&orders.Order{ID: testOrderID, UserID: testUserID}))
	return &recordingStorage{Storage: mem}
}

// recordingLogger captures error logs.
type recordingLogger struct {
	orders.NoopLogger
	mu     sync.Mutex
	errors []string
	fields [][]orders.Field
}

func (l *recordingLogger) Error(msg string, fields ...orders.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
	l.fields = append(l.fields, fields)
}

// recordingMetrics captures event and error labels.
type recordingMetrics struct {
	billing.NoopMetrics
	mu     sync.Mutex
	events []string
	errs   []string
}

func (m *recordingMetrics) RecordWebhookEvent(_, eventType, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventType+":"+status)
}

func (m *recordingMetrics) RecordWebhookError(_, errorType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, errorType)
}

func newTestProvider(t *testing.T, storage orders.Storage) (*Provider, *recordingLogger, *recordingMetrics) {
	t.Helper()
	logger := &recordingLogger{}
	metrics := &recordingMetrics{}
	provider, err := NewProvider(Config{
		Config: billing.Config{
			Storage:       storage,
			WebhookSecret: testWebhookSecret,
			Logger:        logger,
			Metrics:       metrics,
		},
	})
	require.NoError(t, err)
	return provider, logger, metrics
}

var errConnRefused = errors.New("connection refused")
