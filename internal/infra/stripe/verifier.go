package stripe

import (
	"encoding/json"
	"fmt"

	stripego "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"

	"inbox-cleaner-api/internal/payments"
)

// WebhookVerifier authenticates deliveries with Stripe's signature scheme and
// decodes payment_intent events into the reconciler's event shape.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(endpointSecret string) *WebhookVerifier {
	return &WebhookVerifier{secret: endpointSecret}
}

func (v *WebhookVerifier) Verify(payload []byte, signatureHeader string) (payments.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signatureHeader,
		v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return payments.WebhookEvent{}, fmt.Errorf("%w: %v", payments.ErrWebhookAuth, err)
	}

	out := payments.WebhookEvent{
		ID:   event.ID,
		Type: payments.EventType(event.Type),
	}

	switch out.Type {
	case payments.EventPaymentSucceeded, payments.EventPaymentFailed:
		var pi stripego.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return payments.WebhookEvent{}, fmt.Errorf("%w: %v", payments.ErrWebhookPayload, err)
		}
		out.ObjectID = pi.ID
		out.AmountMinor = pi.Amount
		out.Currency = string(pi.Currency)
		out.UserID = pi.Metadata["userId"]
		out.Email = pi.Metadata["email"]
	}

	return out, nil
}
