package stripe

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/mihaimyh/orderhook/pkg/billing"
	"github.com/mihaimyh/orderhook/pkg/orders"
)

// Checkout session metadata keys set by the service that created the session.
const (
	metadataUserID  = "userId"
	metadataOrderID = "orderId"
)

// handleCheckoutSessionCompleted marks the order paid and attaches the
// customer's address as both billing and shipping address.
func (p *Provider) handleCheckoutSessionCompleted(ctx context.Context, event *CheckoutSessionCompleted) error {
	update, err := paymentUpdateFromSession(event.Session)
	if err != nil {
		return err
	}

	start := time.Now()
	order, err := p.storage.MarkOrderPaid(ctx, update)
	if err != nil {
		p.metrics.RecordOrderUpdate(providerName, "error", time.Since(start))
		return fmt.Errorf("%w: order %s: %w", billing.ErrStorage, update.OrderID, err)
	}
	p.metrics.RecordOrderUpdate(providerName, "success", time.Since(start))

	p.logger.Info("order marked paid",
		orders.Field{Key: "event_id", Value: event.ID()},
		orders.Field{Key: "order_id", Value: order.ID},
		orders.Field{Key: "user_id", Value: update.UserID},
		orders.Field{Key: "billing_address_id", Value: order.BillingAddressID},
		orders.Field{Key: "shipping_address_id", Value: order.ShippingAddressID},
	)
	return nil
}

// paymentUpdateFromSession validates the session and builds the order write.
// Nothing is written unless every required field is present.
//
// userId is required even though the write does not use it; it is kept on the
// update for logging.
func paymentUpdateFromSession(session *stripe.CheckoutSession) (*orders.PaymentUpdate, error) {
	if session == nil || session.CustomerDetails == nil || session.CustomerDetails.Email == "" {
		return nil, &billing.ValidationError{Field: "customer_details.email", Message: billing.MsgMissingEmail}
	}

	userID := session.Metadata[metadataUserID]
	orderID := session.Metadata[metadataOrderID]
	if userID == "" || orderID == "" {
		return nil, &billing.ValidationError{Field: "metadata", Message: billing.MsgInvalidMetadata}
	}

	// The session carries one customer address; it is used for both slots.
	addr, err := addressFromCustomerDetails(session.CustomerDetails)
	if err != nil {
		return nil, err
	}

	return &orders.PaymentUpdate{
		OrderID:         orderID,
		UserID:          userID,
		BillingAddress:  addr,
		ShippingAddress: addr,
	}, nil
}

func addressFromCustomerDetails(details *stripe.CheckoutSessionCustomerDetails) (orders.AddressInput, error) {
	if details.Address == nil {
		return orders.AddressInput{}, missingAddressField("customer_details.address")
	}
	a := details.Address

	required := []struct {
		field string
		value string
	}{
		{"customer_details.name", details.Name},
		{"customer_details.address.line1", a.Line1},
		{"customer_details.address.city", a.City},
		{"customer_details.address.postal_code", a.PostalCode},
		{"customer_details.address.country", a.Country},
	}
	for _, r := range required {
		if r.value == "" {
			return orders.AddressInput{}, missingAddressField(r.field)
		}
	}

	in := orders.AddressInput{
		Name:       details.Name,
		Street:     a.Line1,
		City:       a.City,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
	if a.State != "" {
		state := a.State
		in.State = &state
	}
	return in, nil
}

func missingAddressField(field string) error {
	return &billing.ValidationError{Field: field, Message: "Missing address field"}
}
