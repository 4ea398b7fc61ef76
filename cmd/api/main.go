package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"booking-offer-api/internal/broker"
	"booking-offer-api/internal/cache"
	"booking-offer-api/internal/config"
	"booking-offer-api/internal/database"
	"booking-offer-api/internal/events"
	"booking-offer-api/internal/features"
	"booking-offer-api/internal/handler"
	"booking-offer-api/internal/logger"
	"booking-offer-api/internal/middleware"
	"booking-offer-api/internal/notification"
	"booking-offer-api/internal/pdf"
	"booking-offer-api/internal/service"
	"booking-offer-api/internal/sweeper"
	"booking-offer-api/internal/tracing"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configFile := flag.String("config", "", "Optional JSON config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := tracing.InitTracing(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.JaegerEndpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     version,
		Environment: cfg.Environment,
		SampleRatio: cfg.Tracing.SampleRatio,
	}); err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			zl.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.NewDBContext(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	flags := features.NewManager()
	flags.Defaults(cfg.Features.DocumentCache, cfg.Sweep.Enabled, cfg.Features.PDFAttachment, cfg.Features.EventBroker)

	var docCache cache.Cache = cache.NewInMemoryCache()
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, "booking-offer-api:")
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		defer rc.Close()
		docCache = rc
	}

	eventManager := events.NewManager(true, zl.Named("events"))

	if cfg.Broker.URL != "" {
		publisher, err := broker.NewRabbitPublisher(cfg.Broker.URL, cfg.Broker.Exchange, zl.Named("broker"))
		if err != nil {
			return fmt.Errorf("init broker: %w", err)
		}
		defer publisher.Close()
		eventManager.SubscribeAll(broker.Forwarder(publisher, flags, cfg.Timeouts.Notification.Duration))
	}
	// Registered after the publisher so in-flight events drain before it closes.
	defer eventManager.Shutdown()

	renderer := pdf.NewRenderer()

	var notifier service.NotificationSender = notification.NewLogSender(zl.Named("notification"))
	if cfg.Notification.WebhookURL != "" {
		notifier = notification.NewWebhookSender(
			cfg.Notification.WebhookURL,
			cfg.Notification.From,
			cfg.Notification.SubjectPrefix,
			renderer,
			flags,
		)
	}

	svc := service.NewService(service.Deps{
		Store:    db,
		Notifier: notifier,
		Activity: db,
		Events:   eventManager,
		Cache:    docCache,
		Features: flags,
		Logger:   zl.Named("service"),
	}, service.Options{
		DefaultValidityDays: cfg.Offers.DefaultValidityDays,
		Currency:            cfg.Offers.Currency,
		NumberAttempts:      cfg.Offers.NumberAttempts,
		VersionAttempts:     cfg.Offers.VersionAttempts,
		SweepBatchSize:      cfg.Sweep.BatchSize,
		DocumentTTL:         cfg.Redis.DocumentTTL.Duration,
		StoreTimeout:        cfg.Timeouts.Store.Duration,
		NotificationTimeout: cfg.Timeouts.Notification.Duration,
		ActivityTimeout:     cfg.Timeouts.Activity.Duration,
	})

	if cfg.Sweep.Enabled {
		sw := sweeper.New(svc, cfg.Sweep.Interval.Duration, flags, zl.Named("sweeper"))
		sw.Start(ctx)
		defer sw.Stop()
	}

	h := handler.NewHandler(svc, handler.Options{
		MaxBodySize: cfg.Security.MaxRequestBodySize,
		Renderer:    renderer,
		Activity:    db,
		Store:       db,
		Logger:      zl.Named("http"),
	})

	r := chi.NewRouter()

	// Middleware (order matters)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(zl.Named("http")))
	r.Use(chimw.Recoverer)
	r.Use(middleware.TracingMiddleware(cfg.Tracing.ServiceName))
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout.Duration))

	if cfg.RateLimit.Enabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Rate, time.Duration(cfg.RateLimit.Window)*time.Second)
		defer rateLimiter.Stop()
		r.Use(middleware.RateLimitMiddleware(rateLimiter))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(cfg.Security.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.ActorHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Actor)

	h.Routes(r)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("starting HTTP server",
			zap.String("addr", addr),
			zap.String("database", cfg.Database.Path),
			zap.String("environment", cfg.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
