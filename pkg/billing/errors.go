package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderNotConfigured is returned when a provider is not properly configured
	ErrProviderNotConfigured = errors.New("billing provider not configured")

	// ErrMissingSignature is returned when the signature header is absent
	ErrMissingSignature = errors.New("missing webhook signature")

	// ErrInvalidWebhookSignature is returned when webhook signature validation fails
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")

	// ErrInvalidWebhookPayload is returned when webhook payload cannot be read or parsed
	ErrInvalidWebhookPayload = errors.New("invalid webhook payload")

	// ErrValidation is the parent of every ValidationError
	ErrValidation = errors.New("webhook validation failed")

	// ErrStorage wraps failures reported by the order store
	ErrStorage = errors.New("order storage failed")
)

// Messages carried by ValidationError for checkout events.
const (
	MsgMissingEmail    = "Missing user email"
	MsgInvalidMetadata = "Invalid request metadata"
)

// ValidationError reports a required payload field that was absent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Field)
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ErrorKind maps an error from the webhook pipeline to a stable label used in
// logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingSignature):
		return "missing_signature"
	case errors.Is(err, ErrInvalidWebhookSignature):
		return "auth_failed"
	case errors.Is(err, ErrInvalidWebhookPayload):
		return "invalid_payload"
	case errors.Is(err, ErrValidation):
		return "validation_failed"
	case errors.Is(err, ErrStorage):
		return "storage_error"
	default:
		return "processing_error"
	}
}
