package payments

// EventType classifies an inbound webhook delivery. The set handled by the
// reconciler is closed; anything else is acknowledged without effect so new
// provider event types never cause retry storms.
type EventType string

const (
	EventPaymentSucceeded EventType = "payment_intent.succeeded"
	EventPaymentFailed    EventType = "payment_intent.payment_failed"
)

// WebhookEvent is the decoded, signature-verified form of a delivery. It is
// transient: consumed once, never stored.
type WebhookEvent struct {
	ID       string
	Type     EventType
	ObjectID string

	// Attribution and cross-check fields from the provider object's metadata.
	UserID      string
	Email       string
	AmountMinor int64
	Currency    string
}
