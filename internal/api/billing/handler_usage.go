package billing

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inbox-cleaner-api/internal/domain/billing"
	"inbox-cleaner-api/internal/notify"
)

type usageRequest struct {
	UserID           string           `json:"userId"`
	Email            string           `json:"email"`
	EmailsClassified int64            `json:"emailsClassified"`
	Actions          map[string]int64 `json:"actions"`
	Cost             float64          `json:"cost"`
	Timestamp        string           `json:"timestamp"`
}

// TrackUsage handles POST /api/analytics/usage: accumulates the metered
// counters and, when a free-tier user crosses the configured limit, fires a
// one-shot warning notification.
func (h *Handler) TrackUsage(freeTierLimit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body usageRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid usage data"})
			return
		}
		if !validUserID(body.UserID) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid user ID"})
			return
		}
		if body.Timestamp == "" {
			body.Timestamp = time.Now().UTC().Format(time.RFC3339)
		}

		var before, after int64
		updated := h.store.Upsert(body.UserID, func(rec billing.UserBillingRecord) billing.UserBillingRecord {
			out := rec.Clone()
			before = out.Usage.EmailsClassified
			out.Usage.EmailsClassified += body.EmailsClassified
			out.Usage.TotalCostMinor += billing.ToMinor(body.Cost)
			after = out.Usage.EmailsClassified
			if body.Email != "" {
				out.Email = body.Email
			}
			return out
		})

		h.log.Info("usage tracked",
			zap.String("userId", body.UserID),
			zap.Int64("emailsClassified", body.EmailsClassified),
			zap.Any("actions", body.Actions),
			zap.String("timestamp", body.Timestamp))

		crossed := before < freeTierLimit && after >= freeTierLimit
		if crossed && updated.Tier == billing.TierFree && updated.Email != "" {
			h.notifier.DispatchAsync(updated.Email, notify.FreeTierWarning{
				UserID:           body.UserID,
				EmailsClassified: after,
				Limit:            freeTierLimit,
			})
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
