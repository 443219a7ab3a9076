package stripewebhooks

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inbox-cleaner-api/internal/domain/billing"
	"inbox-cleaner-api/internal/ledger"
	"inbox-cleaner-api/internal/notify"
	"inbox-cleaner-api/internal/payments"
)

type Handler struct {
	reconciler *payments.Reconciler
	store      *ledger.Store
	notifier   *notify.Dispatcher
	log        *zap.Logger
}

func NewHandler(reconciler *payments.Reconciler, store *ledger.Store, notifier *notify.Dispatcher, log *zap.Logger) *Handler {
	return &Handler{reconciler: reconciler, store: store, notifier: notifier, log: log}
}

// Webhook handles POST /api/webhook. Only a signature failure rejects the
// delivery; every logically-handled event is acknowledged so the provider
// stops retrying, including event types this service ignores.
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := readWebhookBody(c, 65536)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Error reading request body"})
		return
	}

	outcome, err := h.reconciler.Handle(payload, c.GetHeader("Stripe-Signature"))
	switch {
	case errors.Is(err, payments.ErrWebhookAuth):
		h.log.Warn("webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Signature verification failed"})
		return
	case errors.Is(err, payments.ErrWebhookPayload):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Malformed event payload"})
		return
	case errors.Is(err, payments.ErrProviderUnconfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Webhook secret not configured"})
		return
	case err != nil:
		h.log.Error("webhook handling failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Webhook handling failed"})
		return
	}

	if outcome.Applied {
		h.notifyOutcome(outcome)
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "received"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ignored"})
}

// notifyOutcome sends the matching notification when a contact address is
// known, preferring the event's own metadata over the ledger record.
func (h *Handler) notifyOutcome(outcome payments.Outcome) {
	event := outcome.Event
	to := event.Email
	if to == "" {
		to = h.store.Get(event.UserID).Email
	}
	if to == "" {
		return
	}

	switch event.Type {
	case payments.EventPaymentSucceeded:
		h.notifier.DispatchAsync(to, notify.PaymentSuccessful{
			TransactionID: event.ObjectID,
			Amount:        billing.ToMajor(event.AmountMinor),
			Currency:      event.Currency,
		})
	case payments.EventPaymentFailed:
		h.notifier.DispatchAsync(to, notify.PaymentFailed{
			TransactionID: event.ObjectID,
			Amount:        billing.ToMajor(event.AmountMinor),
			Currency:      event.Currency,
		})
	}
}

func readWebhookBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
