package gin

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gongin "github.com/gin-gonic/gin"
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

func newRouter(t *testing.T) *gongin.Engine {
	t.Helper()
	gongin.SetMode(gongin.TestMode)
	r := gongin.New()
	Register(r, testConfig(t))
	return r
}

func TestRegister_Post(t *testing.T) {
	r := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest(http.MethodPost, "/api/webhooks"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)
	assert.Contains(t, w.Body.String(), `"evt_1"`)
}

func TestRegister_MissingSignature(t *testing.T) {
	r := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/webhooks", bytes.NewReader(testPayload)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid signature", w.Body.String())
}

func TestRegister_OtherMethodsNotRouted(t *testing.T) {
	r := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest(http.MethodGet, "/api/webhooks"))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegister_Group(t *testing.T) {
	gongin.SetMode(gongin.TestMode)
	r := gongin.New()
	cfg := testConfig(t)
	cfg.Path = "/stripe"
	Register(r.Group("/hooks"), cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest(http.MethodPost, "/hooks/stripe"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_RequiresProvider(t *testing.T) {
	assert.Panics(t, func() { Handler(Config{}) })
}
