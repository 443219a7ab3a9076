package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inbox-cleaner-api/config"
	billingapi "inbox-cleaner-api/internal/api/billing"
	notificationsapi "inbox-cleaner-api/internal/api/notifications"
	stripewebhooks "inbox-cleaner-api/internal/api/stripewebhook"
	routes "inbox-cleaner-api/internal/app/http"
	"inbox-cleaner-api/internal/infra/mail"
	stripeinfra "inbox-cleaner-api/internal/infra/stripe"
	"inbox-cleaner-api/internal/ledger"
	"inbox-cleaner-api/internal/notify"
	"inbox-cleaner-api/internal/payments"
)

func main() {
	config.LoadEnv()

	logger := newLogger()
	defer logger.Sync()

	store := ledger.NewStore()

	// Capabilities are decided once, here. Components never re-check env.
	var provider payments.Provider
	if config.STRIPE_SECRET_KEY != "" {
		provider = stripeinfra.NewClient(config.STRIPE_SECRET_KEY)
		logger.Info("stripe payment provider initialized")
	} else {
		provider = payments.NewSimulator()
		logger.Warn("no STRIPE_SECRET_KEY set, payments run in simulated mode")
	}

	var verifier payments.Verifier
	if config.STRIPE_WEBHOOK_SECRET != "" {
		verifier = stripeinfra.NewWebhookVerifier(config.STRIPE_WEBHOOK_SECRET)
	} else {
		verifier = payments.NoVerifier{}
		logger.Warn("no STRIPE_WEBHOOK_SECRET set, webhook deliveries will be rejected")
	}

	var mailer notify.Mailer
	if config.MailConfigured() {
		mailer = mail.NewSMTP(mail.Config{
			Host:     config.SMTP_HOST,
			Port:     config.SMTP_PORT,
			From:     config.SMTP_FROM,
			Password: config.SMTP_PASSWORD,
		})
		logger.Info("email service initialized")
	} else {
		mailer = notify.NoMailer{}
		logger.Warn("SMTP not configured, notifications are disabled")
	}

	manager := payments.NewManager(store, provider, logger)
	reconciler := payments.NewReconciler(store, verifier, logger)
	dispatcher := notify.NewDispatcher(mailer, store, config.SMTP_FROM, logger)

	if config.APP_ENV == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Billing:            billingapi.NewHandler(manager, store, dispatcher, logger),
		Notifications:      notificationsapi.NewHandler(dispatcher, logger),
		Webhooks:           stripewebhooks.NewHandler(reconciler, store, dispatcher, logger),
		FreeTierEmailLimit: config.FREE_TIER_EMAIL_LIMIT,
		RateLimitMax:       config.RATE_LIMIT_MAX,
		RateLimitWindow:    config.RATE_LIMIT_WINDOW,
		JWTSecret:          config.JWT_SECRET,
		StripeEnabled:      config.STRIPE_SECRET_KEY != "",
		EmailEnabled:       config.MailConfigured(),
	})

	logger.Info("server starting", zap.String("port", config.PORT), zap.String("env", config.APP_ENV))
	if err := r.Run(":" + config.PORT); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger() *zap.Logger {
	if config.APP_ENV == "production" {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}
