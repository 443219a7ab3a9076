package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inbox-cleaner-api/internal/domain/billing"
	"inbox-cleaner-api/internal/ledger"
)

type fakeMailer struct {
	sent []Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg-1", nil
}

func newTestDispatcher(mailer Mailer) (*Dispatcher, *ledger.Store) {
	store := ledger.NewStore()
	return NewDispatcher(mailer, store, "billing@inboxcleaner.test", zap.NewNop()), store
}

func TestParsePayloadUnknownType(t *testing.T) {
	_, err := ParsePayload("bogus", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestParsePayloadKnownTypes(t *testing.T) {
	p, err := ParsePayload("payment_successful", json.RawMessage(`{"transactionId":"pi_1","amount":5,"currency":"usd"}`))
	require.NoError(t, err)
	success, ok := p.(PaymentSuccessful)
	require.True(t, ok)
	assert.Equal(t, "pi_1", success.TransactionID)

	p, err = ParsePayload("free_tier_warning", nil)
	require.NoError(t, err)
	_, ok = p.(FreeTierWarning)
	assert.True(t, ok)

	p, err = ParsePayload("payment_failed", json.RawMessage(`{"reason":"card_declined"}`))
	require.NoError(t, err)
	failed, ok := p.(PaymentFailed)
	require.True(t, ok)
	assert.Equal(t, "card_declined", failed.Reason)
}

func TestDispatchRendersAndSends(t *testing.T) {
	mailer := &fakeMailer{}
	d, _ := newTestDispatcher(mailer)

	id, err := d.Dispatch(context.Background(), "a@b.com", PaymentSuccessful{
		TransactionID: "pi_1",
		Amount:        5.00,
		Currency:      "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "a@b.com", msg.To)
	assert.Equal(t, "billing@inboxcleaner.test", msg.From)
	assert.Contains(t, msg.HTML, "pi_1")
	assert.Contains(t, msg.HTML, "$5.00")
	// Unknown payment method renders the default.
	assert.Contains(t, msg.HTML, "Card")
}

func TestDispatchUnavailableMailer(t *testing.T) {
	d, _ := newTestDispatcher(NoMailer{})

	_, err := d.Dispatch(context.Background(), "a@b.com", PaymentFailed{Reason: "card_declined"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDispatchMailerFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	d, _ := newTestDispatcher(mailer)

	_, err := d.Dispatch(context.Background(), "a@b.com", FreeTierWarning{EmailsClassified: 95, Limit: 100})
	assert.Error(t, err)
}

func TestFreeTierWarningEnrichedFromLedger(t *testing.T) {
	mailer := &fakeMailer{}
	d, store := newTestDispatcher(mailer)

	store.Upsert("u1", func(rec billing.UserBillingRecord) billing.UserBillingRecord {
		out := rec.Clone()
		out.Usage.EmailsClassified = 97
		return out
	})

	_, err := d.Dispatch(context.Background(), "a@b.com", FreeTierWarning{UserID: "u1", Limit: 100})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].HTML, "97")
	assert.Contains(t, mailer.sent[0].HTML, "100")
}

func TestRenderEscapesUserControlledFields(t *testing.T) {
	mailer := &fakeMailer{}
	d, _ := newTestDispatcher(mailer)

	_, err := d.Dispatch(context.Background(), "a@b.com", PaymentFailed{
		Reason: "<script>alert(1)</script>",
	})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.NotContains(t, mailer.sent[0].HTML, "<script>")
}
