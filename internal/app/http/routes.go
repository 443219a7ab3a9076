package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	billingapi "inbox-cleaner-api/internal/api/billing"
	notificationsapi "inbox-cleaner-api/internal/api/notifications"
	stripewebhooks "inbox-cleaner-api/internal/api/stripewebhook"
	"inbox-cleaner-api/internal/app/http/middleware"
)

// Deps carries the wired handlers plus the knobs the route table needs.
type Deps struct {
	Billing       *billingapi.Handler
	Notifications *notificationsapi.Handler
	Webhooks      *stripewebhooks.Handler

	FreeTierEmailLimit int64
	RateLimitMax       int
	RateLimitWindow    time.Duration
	JWTSecret          string

	StripeEnabled bool
	EmailEnabled  bool
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"name":    "Inbox Cleaner Pro API",
			"version": "1.0.0",
			"status":  "running",
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services": gin.H{
				"stripe": deps.StripeEnabled,
				"email":  deps.EmailEnabled,
			},
		})
	})

	api := r.Group("/api")
	api.Use(middleware.RateLimit(deps.RateLimitMax, deps.RateLimitWindow))

	// Raw body route: no sanitization, the signature covers the exact bytes.
	api.POST("/webhook", deps.Webhooks.Webhook)

	client := api.Group("/")
	client.Use(middleware.SanitizeJSONInput())
	if deps.JWTSecret != "" {
		client.Use(middleware.RequireBearerToken(deps.JWTSecret))
	}

	client.POST("/payments/create-intent", deps.Billing.CreateIntent)
	client.POST("/process-payment", deps.Billing.ProcessPayment)
	client.GET("/user/:userId/billing", deps.Billing.GetBilling)
	client.POST("/user/:userId/billing", deps.Billing.UpdateBilling)
	client.POST("/analytics/usage", deps.Billing.TrackUsage(deps.FreeTierEmailLimit))
	client.POST("/notify", deps.Notifications.Notify)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"success": false, "error": "Endpoint not found"})
	})
}
