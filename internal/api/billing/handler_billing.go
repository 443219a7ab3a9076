package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inbox-cleaner-api/internal/domain/billing"
)

// GetBilling handles GET /api/user/:userId/billing. A user that was never
// written gets the default free-tier record; absence is not an error.
func (h *Handler) GetBilling(c *gin.Context) {
	userID := c.Param("userId")
	if !validUserID(userID) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid user ID"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.store.Get(userID),
	})
}

// UpdateBilling handles POST /api/user/:userId/billing, a full-record
// replace. The tier stays monotonic: a paid user never reverts to free here.
func (h *Handler) UpdateBilling(c *gin.Context) {
	userID := c.Param("userId")
	if !validUserID(userID) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid user ID"})
		return
	}

	var body billing.UserBillingRecord
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid billing data"})
		return
	}
	if body.Tier == "" {
		body.Tier = billing.TierFree
	}

	h.store.Upsert(userID, func(current billing.UserBillingRecord) billing.UserBillingRecord {
		replacement := body.Clone()
		if current.Tier == billing.TierPaid {
			replacement.Tier = billing.TierPaid
		}
		return replacement
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Billing data updated"})
}
