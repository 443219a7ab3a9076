package payments

import (
	"time"

	"go.uber.org/zap"

	"inbox-cleaner-api/internal/domain/billing"
	"inbox-cleaner-api/internal/ledger"
)

// Reconciler applies provider webhook events to the ledger. Application is
// idempotent and safe under duplicate or reordered delivery: the only ledger
// effect is a monotonic pending -> terminal transition guarded by a
// transaction-id lookup, never a blind append of duplicates.
type Reconciler struct {
	store    *ledger.Store
	verifier Verifier
	log      *zap.Logger
}

func NewReconciler(store *ledger.Store, verifier Verifier, log *zap.Logger) *Reconciler {
	return &Reconciler{store: store, verifier: verifier, log: log}
}

// Outcome reports what a delivery did to the ledger so the caller can decide
// on follow-up (notifications). Applied is false for ignored event types,
// unattributable events and pure duplicates.
type Outcome struct {
	Event   WebhookEvent
	Applied bool
}

// Handle verifies, classifies and applies one delivery. A verification error
// is the only case that should surface as a rejection to the provider; every
// other path acknowledges the delivery.
func (r *Reconciler) Handle(payload []byte, signatureHeader string) (Outcome, error) {
	event, err := r.verifier.Verify(payload, signatureHeader)
	if err != nil {
		return Outcome{}, err
	}

	switch event.Type {
	case EventPaymentSucceeded:
		return r.apply(event, billing.PaymentCompleted), nil
	case EventPaymentFailed:
		return r.apply(event, billing.PaymentFailed), nil
	default:
		// Forward compatibility: acknowledge so the provider stops retrying.
		r.log.Debug("ignoring webhook event", zap.String("type", string(event.Type)))
		return Outcome{Event: event}, nil
	}
}

func (r *Reconciler) apply(event WebhookEvent, status billing.PaymentStatus) Outcome {
	if event.UserID == "" {
		r.log.Warn("webhook event without userId metadata, cannot attribute",
			zap.String("type", string(event.Type)),
			zap.String("objectId", event.ObjectID))
		return Outcome{Event: event}
	}

	applied := false
	var mismatch *billing.PaymentRecord
	r.store.Upsert(event.UserID, func(rec billing.UserBillingRecord) billing.UserBillingRecord {
		if i := rec.FindPayment(event.ObjectID); i >= 0 {
			existing := rec.Payments[i]
			if existing.AmountMinor != event.AmountMinor || existing.Currency != event.Currency {
				// The stored record stays authoritative for money fields;
				// only the status transition is taken from the event.
				mismatch = &existing
			}
			updated, changed := rec.WithPaymentStatus(event.ObjectID, status)
			applied = changed
			return updated
		}

		if status != billing.PaymentCompleted {
			// A failure for an intent we never recorded has nothing to mark.
			return rec
		}

		// Intent created out-of-band (or confirmed on another instance):
		// materialize the completed payment from the event itself.
		applied = true
		return rec.WithPayment(billing.PaymentRecord{
			TransactionID: event.ObjectID,
			AmountMinor:   event.AmountMinor,
			Currency:      event.Currency,
			Status:        billing.PaymentCompleted,
			Timestamp:     time.Now().UTC(),
		})
	})

	if mismatch != nil {
		r.log.Warn("webhook amount mismatch against ledger record",
			zap.String("transactionId", event.ObjectID),
			zap.Int64("recordAmountMinor", mismatch.AmountMinor),
			zap.Int64("eventAmountMinor", event.AmountMinor))
	}
	if applied {
		r.log.Info("webhook event applied",
			zap.String("type", string(event.Type)),
			zap.String("userId", event.UserID),
			zap.String("transactionId", event.ObjectID))
	}
	return Outcome{Event: event, Applied: applied}
}
