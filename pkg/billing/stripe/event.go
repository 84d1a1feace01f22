package stripe

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"github.com/mihaimyh/orderhook/pkg/billing"
)

// EventTypeCheckoutSessionCompleted is the only event type that changes state.
const EventTypeCheckoutSessionCompleted = "checkout.session.completed"

// Event is a verified Stripe event. It is either *CheckoutSessionCompleted
// or *UnhandledEvent.
type Event interface {
	// ID is the Stripe event id (evt_...).
	ID() string
	// Type is the event type tag.
	Type() string
	// Raw is the verified request body.
	Raw() []byte
}

type envelope struct {
	id  string
	typ string
	raw []byte
}

func (e *envelope) ID() string   { return e.id }
func (e *envelope) Type() string { return e.typ }
func (e *envelope) Raw() []byte  { return e.raw }

// CheckoutSessionCompleted carries the typed checkout session payload.
type CheckoutSessionCompleted struct {
	envelope
	Session *stripe.CheckoutSession
}

// UnhandledEvent carries the data object of any other event type opaquely.
type UnhandledEvent struct {
	envelope
	Data json.RawMessage
}

// ParseEvent verifies payload against the Stripe-Signature header value and
// decodes it. API version mismatches between the event and the linked SDK are
// ignored; only the signature and timestamp are enforced.
func ParseEvent(payload []byte, signature, secret string, tolerance time.Duration) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		Tolerance:                tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %w", billing.ErrInvalidWebhookSignature, err)
		}
		return nil, fmt.Errorf("%w: %w", billing.ErrInvalidWebhookPayload, err)
	}
	return decodeEvent(&ev, payload)
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

func decodeEvent(ev *stripe.Event, payload []byte) (Event, error) {
	env := envelope{id: ev.ID, typ: string(ev.Type), raw: payload}

	var data json.RawMessage
	if ev.Data != nil {
		data = ev.Data.Raw
	}

	switch env.typ {
	case EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(data, &session); err != nil {
			return nil, fmt.Errorf("%w: failed to unmarshal checkout session: %w", billing.ErrInvalidWebhookPayload, err)
		}
		return &CheckoutSessionCompleted{envelope: env, Session: &session}, nil
	default:
		return &UnhandledEvent{envelope: env, Data: data}, nil
	}
}
