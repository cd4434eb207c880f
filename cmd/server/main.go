package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"sestrack.app/tracking-server/common/id"
	"sestrack.app/tracking-server/internal/config"
	"sestrack.app/tracking-server/internal/http/handler"
	"sestrack.app/tracking-server/internal/http/handler/webhook"
	"sestrack.app/tracking-server/internal/http/router"
	"sestrack.app/tracking-server/internal/observability"
	"sestrack.app/tracking-server/internal/service"
	"sestrack.app/tracking-server/internal/sns"
	"sestrack.app/tracking-server/internal/store"
)

const serviceName = "tracking-server"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	shutdownTelemetry, err := observability.Setup(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	if err := id.Init(cfg.SnowflakeNode); err != nil {
		return err
	}

	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		return err
	}
	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	db := store.New(pool)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return err
	}

	// Bounded timeouts: neither the certificate fetch nor the confirmation
	// GET may stall the ingestion path.
	webhookClient := &http.Client{Timeout: 10 * time.Second}

	tracking := service.NewTrackingService(db)
	mailer := service.NewMailService(db.EmailLogs(), service.NewSESProvider(sesv2.NewFromConfig(awsCfg)), cfg.FromAddress)

	snsHandler := webhook.NewSNSHandler(
		sns.NewVerifier(webhookClient, sns.DefaultCertHostPattern),
		sns.NewConfirmer(webhookClient),
		tracking,
		slog.Default(),
	)
	emailLogHandler := handler.NewEmailLogHandler(db.EmailLogs(), mailer)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), otelgin.Middleware(serviceName))

	router.SNSWebhookRouter(engine.Group("/amazon-sns/v1"), snsHandler)
	router.EmailLogRouter(engine.Group("/emails"), emailLogHandler)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
