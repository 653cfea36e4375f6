package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dev3-backend/config"
	httpHandler "dev3-backend/internal/adapter/http/handler"
	"dev3-backend/internal/adapter/messaging/rabbitmq"
	pgStorage "dev3-backend/internal/adapter/storage/postgres"
	redisStorage "dev3-backend/internal/adapter/storage/redis"
	"dev3-backend/internal/core/ports"
	"dev3-backend/internal/service"
	"dev3-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// eventSink is what reconciliation publishes to and shutdown closes.
type eventSink interface {
	ports.EventPublisher
	Close()
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("near_network", cfg.Near.Network).
		Msg("Starting dev3 backend")

	ctx := context.Background()

	// PostgreSQL
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	if cfg.Database.AutoMigrate {
		if err := pgStorage.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Msg("Migrations applied")
	}

	// Redis
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// RabbitMQ; events are dropped with a log line when no broker is configured
	var events eventSink = rabbitmq.NewFallback(logger.Component(log, "events"))
	if cfg.RabbitMQ.URL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger.Component(log, "events"))
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, payment events will not be published")
		} else {
			events = producer
		}
	}
	defer events.Close()

	// Repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	projectRepo := pgStorage.NewProjectRepo(pool)
	paymentRepo := pgStorage.NewPaymentRepo(pool)
	txRequestRepo := pgStorage.NewTransactionRequestRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)

	// Redis stores
	nonceStore := redisStorage.NewNonceStore(rdb)
	reconciledCache := redisStorage.NewReconciledCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	oracle := service.NewNearRPCKeyOracle(
		cfg.Near.RPCURL(),
		&http.Client{Timeout: cfg.Near.RPCTimeout},
		logger.Component(log, "near_rpc"),
	)
	authSvc := service.NewAuthService(
		accountRepo,
		service.NewNearSignatureVerifier(),
		oracle,
		tokenSvc,
		nonceStore,
		service.AuthOptions{RPCTimeout: cfg.Near.RPCTimeout, ReplayTTL: cfg.Auth.ReplayTTL},
		logger.Component(log, "auth"),
	)
	paymentSvc := service.NewPaymentService(paymentRepo, projectRepo, logger.Component(log, "payments"))
	txRequestSvc := service.NewTransactionRequestService(txRequestRepo, projectRepo, logger.Component(log, "transaction_requests"))
	reconcileSvc := service.NewReconcileService(
		paymentRepo,
		reconciledCache,
		events,
		cfg.Webhook.CacheTTL,
		logger.Component(log, "reconcile"),
	)
	auditSvc := service.NewAuditService(auditRepo, logger.Component(log, "audit"))

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		PaymentSvc:     paymentSvc,
		TxRequestSvc:   txRequestSvc,
		ReconcileSvc:   reconcileSvc,
		TokenSvc:       tokenSvc,
		SigSvc:         service.NewHMACSignatureService(),
		PagodaBearer:   cfg.Webhook.PagodaBearer,
		HMACSecret:     cfg.Webhook.HMACSecret,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgStorage.NewHealthCheck(pool), redisStorage.NewHealthCheck(rdb)},
		AuditSvc:       auditSvc,
		Logger:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
