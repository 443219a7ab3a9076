package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inbox-cleaner-api/internal/domain/billing"
	"inbox-cleaner-api/internal/ledger"
	"inbox-cleaner-api/internal/notify"
	"inbox-cleaner-api/internal/payments"
)

func newTestRouter(t *testing.T) (*gin.Engine, *ledger.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := ledger.NewStore()
	log := zap.NewNop()
	manager := payments.NewManager(store, payments.NewSimulator(), log)
	dispatcher := notify.NewDispatcher(notify.NoMailer{}, store, "", log)
	h := NewHandler(manager, store, dispatcher, log)

	r := gin.New()
	r.POST("/api/payments/create-intent", h.CreateIntent)
	r.POST("/api/process-payment", h.ProcessPayment)
	r.GET("/api/user/:userId/billing", h.GetBilling)
	r.POST("/api/user/:userId/billing", h.UpdateBilling)
	r.POST("/api/analytics/usage", h.TrackUsage(100))
	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	return w, decoded
}

func TestProcessPaymentOffline(t *testing.T) {
	r, store := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/process-payment", gin.H{
		"amount":           5.00,
		"currency":         "usd",
		"userId":           "u1",
		"paymentMethodRef": "pm_x",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, 5.0, resp["amount"])

	rec := store.Get("u1")
	assert.Equal(t, billing.TierPaid, rec.Tier)
	require.Len(t, rec.Payments, 1)
	assert.Equal(t, int64(500), rec.Payments[0].AmountMinor)
	assert.Equal(t, billing.PaymentCompleted, rec.Payments[0].Status)
}

func TestProcessPaymentBelowMinimum(t *testing.T) {
	r, store := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/process-payment", gin.H{
		"amount": 0.49,
		"userId": "u1",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Invalid payment data", resp["error"])
	assert.Empty(t, store.Get("u1").Payments)
}

func TestProcessPaymentShortUserID(t *testing.T) {
	r, _ := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/process-payment", gin.H{
		"amount": 5.00,
		"userId": "ab",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid user ID", resp["error"])
}

func TestCreateIntentOffline(t *testing.T) {
	r, store := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/payments/create-intent", gin.H{
		"amount": 9.99,
		"userId": "u1",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.NotEmpty(t, resp["intentId"])
	assert.NotEmpty(t, resp["clientSecret"])
	assert.Empty(t, store.Get("u1").Payments)
}

func TestGetBillingDefaultsForUnknownUser(t *testing.T) {
	r, _ := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodGet, "/api/user/unknown-user/billing", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data, ok := resp["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "free", data["tier"])
}

func TestUpdateBillingKeepsTierMonotonic(t *testing.T) {
	r, store := newTestRouter(t)
	store.Upsert("u1x", func(rec billing.UserBillingRecord) billing.UserBillingRecord {
		return rec.WithPayment(billing.PaymentRecord{TransactionID: "pi_1", Status: billing.PaymentCompleted})
	})

	w, resp := doJSON(t, r, http.MethodPost, "/api/user/u1x/billing", gin.H{
		"tier":  "free",
		"email": "a@b.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])

	rec := store.Get("u1x")
	assert.Equal(t, billing.TierPaid, rec.Tier)
	assert.Equal(t, "a@b.com", rec.Email)
}

func TestTrackUsageAccumulates(t *testing.T) {
	r, store := newTestRouter(t)

	for i := 0; i < 3; i++ {
		w, resp := doJSON(t, r, http.MethodPost, "/api/analytics/usage", gin.H{
			"userId":           "u1",
			"emailsClassified": 10,
			"cost":             0.25,
			"actions":          gin.H{"archived": 4},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, resp["success"])
	}

	rec := store.Get("u1")
	assert.Equal(t, int64(30), rec.Usage.EmailsClassified)
	assert.Equal(t, int64(75), rec.Usage.TotalCostMinor)
}

type channelMailer struct {
	sent chan notify.Message
}

func (m *channelMailer) Send(_ context.Context, msg notify.Message) (string, error) {
	m.sent <- msg
	return "msg-1", nil
}

func TestTrackUsageFiresFreeTierWarningOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := ledger.NewStore()
	log := zap.NewNop()
	mailer := &channelMailer{sent: make(chan notify.Message, 2)}
	dispatcher := notify.NewDispatcher(mailer, store, "billing@inboxcleaner.test", log)
	h := NewHandler(payments.NewManager(store, payments.NewSimulator(), log), store, dispatcher, log)

	r := gin.New()
	r.POST("/api/analytics/usage", h.TrackUsage(20))

	// Below the limit: no warning yet.
	w, _ := doJSON(t, r, http.MethodPost, "/api/analytics/usage", gin.H{
		"userId":           "u1",
		"email":            "a@b.com",
		"emailsClassified": 15,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Crossing the limit fires exactly one warning.
	w, _ = doJSON(t, r, http.MethodPost, "/api/analytics/usage", gin.H{
		"userId":           "u1",
		"emailsClassified": 10,
	})
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case msg := <-mailer.sent:
		assert.Equal(t, "a@b.com", msg.To)
		assert.Contains(t, msg.HTML, "25")
	case <-time.After(2 * time.Second):
		t.Fatal("expected a free-tier warning notification")
	}

	// Further usage past the limit does not re-fire.
	w, _ = doJSON(t, r, http.MethodPost, "/api/analytics/usage", gin.H{
		"userId":           "u1",
		"emailsClassified": 10,
	})
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case <-mailer.sent:
		t.Fatal("warning must only fire when the limit is crossed")
	case <-time.After(100 * time.Millisecond):
	}
}
