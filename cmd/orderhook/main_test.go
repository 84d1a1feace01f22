package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihaimyh/orderhook/pkg/billing"
	"github.com/mihaimyh/orderhook/pkg/billing/stripe"
	"github.com/mihaimyh/orderhook/pkg/orders"
	"github.com/mihaimyh/orderhook/storage/memory"
)

type pingStore struct {
	*memory.Storage
	err error
}

func (s *pingStore) Ping(context.Context) error { return s.err }

func newTestRouter(t *testing.T, store orders.Storage) http.Handler {
	t.Helper()
	cfg, err := loadConfig(envFrom(nil))
	require.NoError(t, err)

	provider, err := stripe.NewProvider(stripe.Config{Config: billing.Config{
		Storage:       store,
		WebhookSecret: "whsec_test",
		Logger:        &orders.NoopLogger{},
	}})
	require.NoError(t, err)
	return newRouter(cfg, provider, store, &orders.NoopLogger{})
}

func TestRouter_Webhook(t *testing.T) {
	r := newTestRouter(t, memory.New())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/webhooks", bytes.NewReader([]byte(`{}`))))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid signature", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/webhooks", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouter_Healthz(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(t, memory.New()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = httptest.NewRecorder()
	store := &pingStore{Storage: memory.New(), err: errors.New("connection refused")}
	newTestRouter(t, store).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestOpenStore_Memory(t *testing.T) {
	store, closeStore, err := openStore(t.Context(), &Config{Store: storeMemory}, &orders.NoopLogger{})
	require.NoError(t, err)
	defer closeStore()

	_, ok := store.(*memory.Storage)
	assert.True(t, ok)
}
