// Package payments holds the payment-intent lifecycle and the webhook-driven
// reconciliation against the ledger.
package payments

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidPaymentRequest means the caller sent a malformed amount,
	// currency or user id. Not retryable.
	ErrInvalidPaymentRequest = errors.New("invalid payment request")

	// ErrWebhookAuth means the delivery's signature did not match the shared
	// secret. The delivery is rejected without touching the ledger.
	ErrWebhookAuth = errors.New("webhook signature verification failed")

	// ErrWebhookPayload means the payload was signed correctly but could not
	// be decoded into a known event shape.
	ErrWebhookPayload = errors.New("malformed webhook payload")

	// ErrProviderUnconfigured is returned by capability stand-ins when the
	// deployment has no real provider wired.
	ErrProviderUnconfigured = errors.New("payment provider not configured")
)

// ProviderError wraps a failed or non-final charge attempt. The provider's
// intent id and status are surfaced to the caller; the raw provider error
// never escapes this package's boundary.
type ProviderError struct {
	IntentID string
	Status   string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("payment provider: intent %s in status %q", e.IntentID, e.Status)
	}
	return "payment provider: charge attempt failed"
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Intent is the provider-side view of a charge attempt.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// StatusSucceeded is the only provider status treated as final success; every
// other status is non-final or failed.
const StatusSucceeded = "succeeded"

// Provider is the external payment capability. Implementations must be safe
// for concurrent use. The concrete implementation (real or simulated) is
// chosen at construction time.
type Provider interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (Intent, error)
	Confirm(ctx context.Context, intentID, paymentMethodRef string) (Intent, error)
}

// Verifier authenticates and decodes an inbound webhook delivery.
type Verifier interface {
	Verify(payload []byte, signatureHeader string) (WebhookEvent, error)
}

// NoVerifier rejects every delivery; used when no webhook secret is
// configured so unverifiable deliveries are never applied.
type NoVerifier struct{}

func (NoVerifier) Verify([]byte, string) (WebhookEvent, error) {
	return WebhookEvent{}, ErrProviderUnconfigured
}
