package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inbox-cleaner-api/internal/notify"
)

type Handler struct {
	dispatcher *notify.Dispatcher
	log        *zap.Logger
}

func NewHandler(dispatcher *notify.Dispatcher, log *zap.Logger) *Handler {
	return &Handler{dispatcher: dispatcher, log: log}
}

type notifyRequest struct {
	To   string          `json:"to"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Notify handles POST /api/notify. Type and payload are validated before the
// mail capability is touched.
func (h *Handler) Notify(c *gin.Context) {
	var body notifyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing required email fields"})
		return
	}
	if strings.TrimSpace(body.To) == "" || !strings.Contains(body.To, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing required email fields"})
		return
	}

	payload, err := notify.ParsePayload(body.Type, body.Data)
	if err != nil {
		if errors.Is(err, notify.ErrInvalidType) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unknown notification type"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid notification data"})
		return
	}

	messageID, err := h.dispatcher.Dispatch(c.Request.Context(), body.To, payload)
	if err != nil {
		if errors.Is(err, notify.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Email service not configured"})
			return
		}
		h.log.Error("failed to send notification", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to send email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "messageId": messageID})
}
