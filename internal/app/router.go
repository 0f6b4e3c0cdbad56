package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bemyrider/internal/auth"
	"bemyrider/internal/handler"
	"bemyrider/internal/middleware"
	"bemyrider/internal/repository"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	ServiceRequestHandler *handler.ServiceRequestHandler
	BookingHandler        *handler.BookingHandler
	PaymentHandler        *handler.PaymentHandler
	WebhookHandler        *handler.WebhookHandler
	RiderHandler          *handler.RiderHandler
	ProfileHandler        *handler.ProfileHandler
	OnboardingHandler     *handler.OnboardingHandler
	FavoriteHandler       *handler.FavoriteHandler
	Tokens                *auth.TokenManager
	Profiles              repository.ProfileRepository
	RedisClient           *redis.Client // nil disables Idempotency-Key replay
	NewRelicApp           *newrelic.Application
	CORSOrigins           []string
	Logger                *zap.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.MetricsMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(deps.CORSOrigins))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Processor callbacks authenticate by signature, not by session.
	router.POST("/webhook", deps.WebhookHandler.Handle)
	router.POST("/v1/stripe/webhook", deps.WebhookHandler.Handle)

	idempotent := func(c *gin.Context) { c.Next() }
	if deps.RedisClient != nil {
		idempotent = middleware.IdempotencyMiddleware(deps.RedisClient)
	}

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.Tokens, deps.Profiles))
	v1.Use(middleware.NewRelicPrincipalMiddleware())
	{
		// Profile routes.
		v1.POST("/profiles", deps.ProfileHandler.Register)
		v1.GET("/profiles/me", deps.ProfileHandler.Me)
		v1.DELETE("/account", deps.ProfileHandler.DeleteAccount)

		// Rider catalogue.
		riders := v1.Group("/riders")
		{
			riders.GET("", deps.RiderHandler.List)
			riders.PUT("/me/rate", deps.RiderHandler.SetRate)
			riders.GET("/:id", deps.RiderHandler.Get)
			riders.GET("/:id/reviews", deps.RiderHandler.Reviews)
		}

		// Service request routes.
		requests := v1.Group("/service-requests")
		{
			requests.POST("", deps.ServiceRequestHandler.Create)
			requests.GET("", deps.ServiceRequestHandler.List)
			requests.GET("/:id", deps.ServiceRequestHandler.Get)
			requests.PUT("/:id/respond", deps.ServiceRequestHandler.Respond)
			requests.POST("/:id/checkout", idempotent, deps.ServiceRequestHandler.Checkout)
		}

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", idempotent, deps.BookingHandler.Create)
			bookings.GET("", deps.BookingHandler.List)
			bookings.GET("/:id", deps.BookingHandler.Get)
			bookings.POST("/:id/confirm", deps.BookingHandler.Confirm)
			bookings.POST("/:id/start", deps.BookingHandler.Start)
			bookings.POST("/:id/complete", deps.BookingHandler.Complete)
			bookings.POST("/:id/cancel", deps.BookingHandler.Cancel)
			bookings.GET("/:id/receipt", deps.BookingHandler.Receipt)
			bookings.POST("/:id/review", deps.BookingHandler.Review)
		}

		// Payment routes.
		v1.POST("/create-payment-intent", idempotent, deps.PaymentHandler.CreatePaymentIntent)

		// Rider onboarding.
		stripe := v1.Group("/stripe")
		{
			stripe.POST("/onboarding", deps.OnboardingHandler.Start)
			stripe.GET("/onboarding", deps.OnboardingHandler.Status)
			stripe.POST("/login-link", deps.OnboardingHandler.LoginLink)
		}

		// Merchant favorites.
		favorites := v1.Group("/favorites")
		{
			favorites.GET("", deps.FavoriteHandler.List)
			favorites.POST("", deps.FavoriteHandler.Add)
			favorites.DELETE("/:riderId", deps.FavoriteHandler.Remove)
		}
	}

	return router
}
