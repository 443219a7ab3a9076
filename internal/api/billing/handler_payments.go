package billing

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inbox-cleaner-api/internal/domain/billing"
	stripeinfra "inbox-cleaner-api/internal/infra/stripe"
	"inbox-cleaner-api/internal/ledger"
	"inbox-cleaner-api/internal/notify"
	"inbox-cleaner-api/internal/payments"
)

type Handler struct {
	manager  *payments.Manager
	store    *ledger.Store
	notifier *notify.Dispatcher
	log      *zap.Logger
}

func NewHandler(manager *payments.Manager, store *ledger.Store, notifier *notify.Dispatcher, log *zap.Logger) *Handler {
	return &Handler{manager: manager, store: store, notifier: notifier, log: log}
}

type paymentRequest struct {
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	UserID           string  `json:"userId"`
	PaymentMethodRef string  `json:"paymentMethodRef"`
}

func (r *paymentRequest) normalize() {
	if r.Currency == "" {
		r.Currency = "usd"
	}
}

// CreateIntent handles POST /api/payments/create-intent.
func (h *Handler) CreateIntent(c *gin.Context) {
	var body paymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid payment data"})
		return
	}
	body.normalize()
	if !validUserID(body.UserID) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid user ID"})
		return
	}

	result, err := h.manager.CreateIntent(c.Request.Context(), body.UserID, body.Amount, body.Currency)
	if err != nil {
		h.writePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"intentId":     result.IntentID,
		"clientSecret": result.ClientSecret,
	})
}

// ProcessPayment handles POST /api/process-payment.
func (h *Handler) ProcessPayment(c *gin.Context) {
	var body paymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid payment data"})
		return
	}
	body.normalize()
	if !validUserID(body.UserID) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid user ID"})
		return
	}

	result, err := h.manager.ProcessPayment(c.Request.Context(), body.UserID, body.Amount, body.Currency, body.PaymentMethodRef)
	if err != nil {
		h.writePaymentError(c, err)
		return
	}

	if !result.Completed {
		// Non-final outcome: the webhook reconciler will finish the story.
		c.JSON(http.StatusPaymentRequired, gin.H{
			"success":       false,
			"error":         "Payment was not completed",
			"transactionId": result.TransactionID,
			"status":        stripeinfra.NormalizeIntentStatus(result.Status),
		})
		return
	}

	if rec := h.store.Get(body.UserID); rec.Email != "" {
		h.notifier.DispatchAsync(rec.Email, notify.PaymentSuccessful{
			TransactionID: result.TransactionID,
			Amount:        billing.ToMajor(result.AmountMinor),
			Currency:      result.Currency,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"transactionId": result.TransactionID,
		"amount":        billing.ToMajor(result.AmountMinor),
	})
}

func (h *Handler) writePaymentError(c *gin.Context, err error) {
	var provErr *payments.ProviderError
	switch {
	case errors.Is(err, payments.ErrInvalidPaymentRequest):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid payment data"})
	case errors.As(err, &provErr):
		h.log.Warn("payment provider call failed",
			zap.String("intentId", provErr.IntentID),
			zap.Error(provErr.Err))
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Payment processing failed"})
	default:
		h.log.Error("unexpected payment error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Payment processing failed"})
	}
}

// userId is externally assigned; only a minimum length is enforced here.
func validUserID(userID string) bool {
	return len(userID) >= 3
}
