package mux

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83/webhook"

	"github.com/mihaimyh/orderhook/pkg/billing"
	"github.com/mihaimyh/orderhook/pkg/billing/stripe"
	"github.com/mihaimyh/orderhook/pkg/orders"
	"github.com/mihaimyh/orderhook/storage/memory"
)

const testSecret = "whsec_test_secret"

var testPayload = []byte(`{"id":"evt_1","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`)

func testConfig(t *testing.T) Config {
	t.Helper()
	provider, err := stripe.NewProvider(stripe.Config{Config: billing.Config{
		Storage:       memory.New(),
		WebhookSecret: testSecret,
		Logger:        &orders.NoopLogger{},
	}})
	require.NoError(t, err)
	return Config{Provider: provider}
}

func signedRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(testPayload))
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: testPayload, Secret: testSecret, Timestamp: time.Now()})
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

func TestRegister_Post(t *testing.T) {
	r := mux.NewRouter()
	Register(r, testConfig(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest(http.MethodPost, "/api/webhooks"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)
}

func TestRegister_OtherMethodsNotRouted(t *testing.T) {
	r := mux.NewRouter()
	Register(r, testConfig(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest(http.MethodGet, "/api/webhooks"))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRegister_Subrouter(t *testing.T) {
	r := mux.NewRouter()
	cfg := testConfig(t)
	cfg.Path = "/stripe"
	Register(r.PathPrefix("/hooks").Subrouter(), cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest(http.MethodPost, "/hooks/stripe"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister_RequiresProvider(t *testing.T) {
	assert.Panics(t, func() { Register(mux.NewRouter(), Config{}) })
}
