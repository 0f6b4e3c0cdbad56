package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bemyrider/internal/app"
	"bemyrider/internal/auth"
	"bemyrider/internal/config"
	"bemyrider/internal/events"
	"bemyrider/internal/handler"
	"bemyrider/internal/logging"
	"bemyrider/internal/payments"
	internalRedis "bemyrider/internal/redis"
	"bemyrider/internal/repository/postgres"
	"bemyrider/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	if cfg.App.Migrate {
		if err := app.Migrate(ctx, db, logger); err != nil {
			logger.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info("publishing domain events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	defer publisher.Close()

	gin.SetMode(gin.ReleaseMode)
	server := wireServer(db, redisClient, publisher, nrApp, cfg, logger)

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	publisher events.Publisher,
	nrApp *newrelic.Application,
	cfg *config.Config,
	logger *zap.Logger,
) *http.Server {
	// Redis stores.
	cacheStore := internalRedis.NewCacheStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	orphanLedger := internalRedis.NewOrphanLedger(redisClient)

	// Repositories.
	repos := postgres.NewRepositories(db)
	uow := postgres.NewUnitOfWork(db)

	gateway := payments.NewStripeGateway(cfg.Stripe, logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)

	// Services.
	notifications := service.NewNotificationService(publisher, logger)
	receipts := service.NewReceiptService(repos)
	riders := service.NewRiderService(repos, cacheStore, logger)
	requests := service.NewServiceRequestService(repos, notifications, logger)
	bookings := service.NewBookingService(repos, uow, receipts, cacheStore, notifications, logger)
	paymentService := service.NewPaymentService(repos, gateway, orphanLedger, lockStore, notifications, logger)
	webhooks := service.NewWebhookService(repos, gateway, lockStore, cacheStore, notifications, logger)
	onboarding := service.NewOnboardingService(repos, gateway, cacheStore, cfg.App.BaseURL, logger)
	profiles := service.NewProfileService(repos, uow, cacheStore, logger)
	reviews := service.NewReviewService(repos, uow, cacheStore, logger)
	favorites := service.NewFavoriteService(repos, riders)

	router := app.NewRouter(app.RouterDeps{
		ServiceRequestHandler: handler.NewServiceRequestHandler(requests, paymentService),
		BookingHandler:        handler.NewBookingHandler(bookings, receipts, reviews),
		PaymentHandler:        handler.NewPaymentHandler(paymentService),
		WebhookHandler:        handler.NewWebhookHandler(webhooks),
		RiderHandler:          handler.NewRiderHandler(riders, reviews),
		ProfileHandler:        handler.NewProfileHandler(profiles),
		OnboardingHandler:     handler.NewOnboardingHandler(onboarding),
		FavoriteHandler:       handler.NewFavoriteHandler(favorites),
		Tokens:                tokens,
		Profiles:              repos.Profiles,
		RedisClient:           redisClient,
		NewRelicApp:           nrApp,
		CORSOrigins:           cfg.Server.CORSOrigins,
		Logger:                logger,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
