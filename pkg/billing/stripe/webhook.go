package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mihaimyh/orderhook/pkg/billing"
	"github.com/mihaimyh/orderhook/pkg/billing/internal"
	"github.com/mihaimyh/orderhook/pkg/orders"
)

const (
	msgInvalidSignature = "Invalid signature"
	msgGenericFailure   = "Something went wrong"
	unknownEventType    = "UNKNOWN"
)

type webhookResult struct {
	Result json.RawMessage `json:"result"`
	OK     bool            `json:"ok"`
}

type webhookFailure struct {
	Message string `json:"message"`
	OK      bool   `json:"ok"`
}

// handleWebhook processes incoming Stripe webhook events.
//
// Responses: 400 "Invalid signature" when the header is missing, 200 with the
// event echoed back on success, and a uniform 500 for every other failure.
func (p *Provider) handleWebhook(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	internal.SetSecurityHeaders(w)

	sig := r.Header.Get(signatureHeader)
	if sig == "" {
		p.metrics.RecordWebhookError(providerName, billing.ErrorKind(billing.ErrMissingSignature))
		p.logger.Warn("webhook rejected", orders.Field{Key: "error", Value: billing.ErrMissingSignature})
		_ = internal.WriteText(w, http.StatusBadRequest, msgInvalidSignature)
		return
	}

	body, err := internal.ReadBody(w, r, p.maxBodyBytes)
	if err != nil {
		p.fail(w, nil, fmt.Errorf("%w: %w", billing.ErrInvalidWebhookPayload, err), startTime)
		return
	}

	event, err := p.process(r.Context(), body, sig)
	if err != nil {
		p.fail(w, event, err, startTime)
		return
	}

	if err := internal.WriteJSON(w, http.StatusOK, webhookResult{Result: body, OK: true}); err != nil {
		p.logger.Warn("failed to write webhook response", orders.Field{Key: "error", Value: err})
	}

	status := "ignored"
	if _, ok := event.(*CheckoutSessionCompleted); ok {
		status = "handled"
	}
	p.metrics.RecordWebhookEvent(providerName, event.Type(), status)
	p.metrics.RecordWebhookProcessingDuration(providerName, event.Type(), time.Since(startTime))
}

// process verifies, parses and applies one event. The event is returned
// alongside an error when verification succeeded but handling failed.
func (p *Provider) process(ctx context.Context, payload []byte, signature string) (Event, error) {
	if signature == "" {
		return nil, billing.ErrMissingSignature
	}

	event, err := ParseEvent(payload, signature, p.webhookSecret, p.tolerance)
	if err != nil {
		return nil, err
	}

	if err := p.HandleEvent(ctx, event); err != nil {
		return event, err
	}
	return event, nil
}

// fail logs err server-side and writes the generic failure response.
func (p *Provider) fail(w http.ResponseWriter, event Event, err error, startTime time.Time) {
	kind := billing.ErrorKind(err)
	eventType := unknownEventType

	fields := []orders.Field{
		{Key: "error", Value: err},
		{Key: "error_kind", Value: kind},
	}
	if event != nil {
		eventType = event.Type()
		fields = append(fields,
			orders.Field{Key: "event_id", Value: event.ID()},
			orders.Field{Key: "event_type", Value: eventType},
		)
	}
	p.logger.Error("webhook processing failed", fields...)

	p.metrics.RecordWebhookError(providerName, kind)
	p.metrics.RecordWebhookEvent(providerName, eventType, "error")
	p.metrics.RecordWebhookProcessingDuration(providerName, eventType, time.Since(startTime))

	_ = internal.WriteJSON(w, http.StatusInternalServerError, webhookFailure{Message: msgGenericFailure, OK: false})
}
