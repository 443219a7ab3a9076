package payments

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"inbox-cleaner-api/internal/domain/billing"
	"inbox-cleaner-api/internal/ledger"
)

// Manager creates and advances payment intents and applies completed payments
// to the ledger. Provider calls happen before the ledger mutation, never while
// a key lock is held.
type Manager struct {
	store    *ledger.Store
	provider Provider
	log      *zap.Logger
}

func NewManager(store *ledger.Store, provider Provider, log *zap.Logger) *Manager {
	return &Manager{store: store, provider: provider, log: log}
}

// IntentResult is returned from CreateIntent. The client completes the charge
// with the client secret; the ledger is untouched until confirmation.
type IntentResult struct {
	IntentID     string
	ClientSecret string
}

// PaymentResult is returned from ProcessPayment. Completed is false when the
// provider reported a non-final status; TransactionID and Status then carry
// the provider's view so the caller can follow up.
type PaymentResult struct {
	Completed     bool
	TransactionID string
	Status        string
	AmountMinor   int64
	Currency      string
}

func validateRequest(userID string, amount float64, currency string) error {
	if userID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidPaymentRequest)
	}
	if billing.ToMinor(amount) < billing.MinimumChargeMinor {
		return fmt.Errorf("%w: amount below minimum", ErrInvalidPaymentRequest)
	}
	if !billing.SupportedCurrency(currency) {
		return fmt.Errorf("%w: unsupported currency %q", ErrInvalidPaymentRequest, currency)
	}
	return nil
}

// CreateIntent registers a charge attempt with the provider and returns its
// client secret. No ledger write happens here: the webhook reconciler applies
// the eventual outcome.
func (m *Manager) CreateIntent(ctx context.Context, userID string, amount float64, currency string) (IntentResult, error) {
	if err := validateRequest(userID, amount, currency); err != nil {
		return IntentResult{}, err
	}

	intent, err := m.provider.CreateIntent(ctx, billing.ToMinor(amount), currency, map[string]string{
		"userId": userID,
	})
	if err != nil {
		return IntentResult{}, &ProviderError{Err: err}
	}

	m.log.Info("payment intent created",
		zap.String("userId", userID),
		zap.String("intentId", intent.ID))
	return IntentResult{IntentID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// ProcessPayment confirms a charge with the provider and, only on immediate
// success, appends a completed payment and upgrades the tier. Any other
// outcome leaves the ledger untouched: the webhook reconciler is the sole
// source of truth for asynchronous results, which prevents double-application.
func (m *Manager) ProcessPayment(ctx context.Context, userID string, amount float64, currency, paymentMethodRef string) (PaymentResult, error) {
	if err := validateRequest(userID, amount, currency); err != nil {
		return PaymentResult{}, err
	}

	amountMinor := billing.ToMinor(amount)
	intent, err := m.provider.CreateIntent(ctx, amountMinor, currency, map[string]string{
		"userId": userID,
	})
	if err != nil {
		return PaymentResult{}, &ProviderError{Err: err}
	}

	confirmed, err := m.provider.Confirm(ctx, intent.ID, paymentMethodRef)
	if err != nil {
		return PaymentResult{}, &ProviderError{IntentID: intent.ID, Err: err}
	}
	if confirmed.Status != StatusSucceeded {
		// Requires further action or failed: the webhook will tell us.
		return PaymentResult{
			Completed:     false,
			TransactionID: confirmed.ID,
			Status:        confirmed.Status,
			AmountMinor:   amountMinor,
			Currency:      currency,
		}, nil
	}

	record := billing.PaymentRecord{
		TransactionID: confirmed.ID,
		AmountMinor:   amountMinor,
		Currency:      currency,
		Status:        billing.PaymentCompleted,
		Timestamp:     time.Now().UTC(),
	}
	m.store.Upsert(userID, func(rec billing.UserBillingRecord) billing.UserBillingRecord {
		return rec.WithPayment(record)
	})

	m.log.Info("payment completed",
		zap.String("userId", userID),
		zap.String("transactionId", record.TransactionID),
		zap.Int64("amountMinor", amountMinor),
		zap.String("currency", currency),
		zap.Bool("simulated", record.Simulated()))

	return PaymentResult{
		Completed:     true,
		TransactionID: record.TransactionID,
		Status:        StatusSucceeded,
		AmountMinor:   amountMinor,
		Currency:      currency,
	}, nil
}
