package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/healthfirst/connect/cmd/mainconfig"
	"github.com/healthfirst/connect/internal/api/router"
	"github.com/healthfirst/connect/internal/assistant"
	"github.com/healthfirst/connect/internal/booking"
	"github.com/healthfirst/connect/internal/catalog"
	appconfig "github.com/healthfirst/connect/internal/config"
	httpmiddleware "github.com/healthfirst/connect/internal/http/middleware"
	"github.com/healthfirst/connect/internal/notify"
	"github.com/healthfirst/connect/internal/observability/metrics"
	"github.com/healthfirst/connect/internal/payments"
	"github.com/healthfirst/connect/internal/receipt"
	"github.com/healthfirst/connect/pkg/logging"
)

func main() {
	// Local development convenience; absent in production.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting healthfirst-connect API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	// Catalog: built-in seed data, or Postgres when a DATABASE_URL is set.
	cat := catalog.Default()
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to catalog database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		loaded, err := catalog.LoadFromPostgres(ctx, pool)
		if err != nil {
			logger.Error("failed to load catalog from database", "error", err)
			os.Exit(1)
		}
		cat = loaded
		logger.Info("catalog loaded from database", "services", len(cat.Services()))
	}

	// Booking draft store.
	var drafts booking.DraftStore
	switch cfg.DraftBackend {
	case "redis":
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}
		drafts = booking.NewRedisDraftStore(client, cfg.DraftTTL)
		logger.Info("draft store: redis", "addr", cfg.RedisAddr)
	default:
		drafts = booking.NewMemoryDraftStore(cfg.DraftTTL)
		logger.Info("draft store: in-memory")
	}

	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)

	// Outbound email.
	var emailSender notify.EmailSender
	switch cfg.EmailProvider {
	case "ses":
		emailSender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger.Named("notify"))
	case "sendgrid":
		emailSender = notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger.Named("notify"))
	default:
		emailSender = notify.NewStubEmailSender(logger.Named("notify"))
	}
	notifier := notify.NewService(emailSender, logger.Named("notify"))

	// Appointment lifecycle.
	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	store := booking.NewStore(dynamoClient, cfg.AppointmentsTable, logger.Named("booking"))
	manager := booking.NewManager(store, cat, notifier, bookingMetrics, cfg.PublicBaseURL, logger.Named("booking"))

	// Conversational assistant.
	var llm assistant.LLMClient
	model := cfg.BedrockModelID
	switch cfg.LLMProvider {
	case "gemini":
		gemini, err := assistant.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		defer func() { _ = gemini.Close() }()
		llm = gemini
		model = cfg.GeminiModelID
	default:
		llm = assistant.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
	}
	assistantSvc := assistant.NewService(llm, model, cat, manager, bookingMetrics, cfg.LLMTimeout, logger.Named("assistant"))

	// Receipt archive (optional).
	var archiver *receipt.Archiver
	if cfg.ReceiptArchiveBucket != "" {
		archiver = receipt.NewArchiver(s3.NewFromConfig(awsCfg), cfg.ReceiptArchiveBucket, logger.Named("receipt"))
	}

	processor := payments.NewProcessor(cfg.AllowSimulatedPayments, logger.Named("payments"))

	routerCfg := &router.Config{
		Logger:             logger,
		CatalogHandler:     catalog.NewHandler(cat, logger),
		BookingHandler:     booking.NewHandler(manager, drafts, cat, logger.Named("booking")),
		PaymentsHandler:    payments.NewHandler(processor, drafts, cat, logger.Named("payments")),
		ReceiptHandler:     receipt.NewHandler(manager, archiver, logger.Named("receipt")),
		AssistantHandler:   assistant.NewHandler(assistantSvc, manager, logger.Named("assistant")),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Auth: httpmiddleware.AuthConfig{
			Region:        cfg.CognitoRegion,
			UserPoolID:    cfg.CognitoUserPoolID,
			ClientID:      cfg.CognitoClientID,
			AllowDemoUser: cfg.AllowDemoAuth,
		},
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
