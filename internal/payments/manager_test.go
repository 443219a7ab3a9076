package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inbox-cleaner-api/internal/domain/billing"
	"inbox-cleaner-api/internal/ledger"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (Intent, error) {
	args := m.Called(ctx, amountMinor, currency, metadata)
	return args.Get(0).(Intent), args.Error(1)
}

func (m *mockProvider) Confirm(ctx context.Context, intentID, paymentMethodRef string) (Intent, error) {
	args := m.Called(ctx, intentID, paymentMethodRef)
	return args.Get(0).(Intent), args.Error(1)
}

func newTestManager(provider Provider) (*Manager, *ledger.Store) {
	store := ledger.NewStore()
	return NewManager(store, provider, zap.NewNop()), store
}

func TestCreateIntentValidation(t *testing.T) {
	provider := &mockProvider{}
	m, _ := newTestManager(provider)
	ctx := context.Background()

	_, err := m.CreateIntent(ctx, "u1", 0.49, "usd")
	assert.ErrorIs(t, err, ErrInvalidPaymentRequest)

	_, err = m.CreateIntent(ctx, "u1", 5.00, "xyz")
	assert.ErrorIs(t, err, ErrInvalidPaymentRequest)

	_, err = m.CreateIntent(ctx, "", 5.00, "usd")
	assert.ErrorIs(t, err, ErrInvalidPaymentRequest)

	provider.AssertNotCalled(t, "CreateIntent")
}

func TestCreateIntentMinimumAmountBoundary(t *testing.T) {
	provider := &mockProvider{}
	provider.On("CreateIntent", mock.Anything, int64(50), "usd", mock.Anything).
		Return(Intent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil)
	m, store := newTestManager(provider)

	result, err := m.CreateIntent(context.Background(), "u1", 0.50, "usd")
	require.NoError(t, err)
	assert.Equal(t, "pi_1", result.IntentID)
	assert.Equal(t, "pi_1_secret", result.ClientSecret)

	// Intent creation never writes the ledger.
	assert.Empty(t, store.Get("u1").Payments)
}

func TestProcessPaymentSuccess(t *testing.T) {
	provider := &mockProvider{}
	provider.On("CreateIntent", mock.Anything, int64(500), "usd", map[string]string{"userId": "u1"}).
		Return(Intent{ID: "pi_1"}, nil)
	provider.On("Confirm", mock.Anything, "pi_1", "pm_x").
		Return(Intent{ID: "pi_1", Status: StatusSucceeded}, nil)
	m, store := newTestManager(provider)

	result, err := m.ProcessPayment(context.Background(), "u1", 5.00, "usd", "pm_x")
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, "pi_1", result.TransactionID)

	rec := store.Get("u1")
	assert.Equal(t, billing.TierPaid, rec.Tier)
	require.Len(t, rec.Payments, 1)
	assert.Equal(t, int64(500), rec.Payments[0].AmountMinor)
	assert.Equal(t, billing.PaymentCompleted, rec.Payments[0].Status)
}

func TestProcessPaymentNonFinalLeavesLedgerUntouched(t *testing.T) {
	provider := &mockProvider{}
	provider.On("CreateIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(Intent{ID: "pi_1"}, nil)
	provider.On("Confirm", mock.Anything, "pi_1", "pm_x").
		Return(Intent{ID: "pi_1", Status: "requires_action"}, nil)
	m, store := newTestManager(provider)

	result, err := m.ProcessPayment(context.Background(), "u1", 5.00, "usd", "pm_x")
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Equal(t, "pi_1", result.TransactionID)
	assert.Equal(t, "requires_action", result.Status)

	// The webhook reconciler is the sole writer for async outcomes.
	rec := store.Get("u1")
	assert.Empty(t, rec.Payments)
	assert.Equal(t, billing.TierFree, rec.Tier)
}

func TestProcessPaymentProviderError(t *testing.T) {
	provider := &mockProvider{}
	provider.On("CreateIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(Intent{}, errors.New("card network down"))
	m, store := newTestManager(provider)

	_, err := m.ProcessPayment(context.Background(), "u1", 5.00, "usd", "pm_x")
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Empty(t, store.Get("u1").Payments)
}

func TestProcessPaymentOfflineMode(t *testing.T) {
	m, store := newTestManager(NewSimulator())

	result, err := m.ProcessPayment(context.Background(), "u1", 5.00, "usd", "pm_x")
	require.NoError(t, err)
	assert.True(t, result.Completed)

	rec := store.Get("u1")
	assert.Equal(t, billing.TierPaid, rec.Tier)
	require.Len(t, rec.Payments, 1)
	assert.Equal(t, int64(500), rec.Payments[0].AmountMinor)
	assert.Equal(t, billing.PaymentCompleted, rec.Payments[0].Status)
	assert.True(t, rec.Payments[0].Simulated())
}
