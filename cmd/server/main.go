package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/courierpost/newsletter-service/internal/api"
	"github.com/courierpost/newsletter-service/internal/config"
	"github.com/courierpost/newsletter-service/internal/db"
	"github.com/courierpost/newsletter-service/internal/domain"
	"github.com/courierpost/newsletter-service/internal/mailer"
	"github.com/courierpost/newsletter-service/internal/metrics"
	"github.com/courierpost/newsletter-service/internal/repository"
	"github.com/courierpost/newsletter-service/internal/service"
	"github.com/courierpost/newsletter-service/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	sender, err := domain.ParseSubscriberEmail(cfg.EmailSender)
	if err != nil {
		logger.Fatal("EMAIL_SENDER is not a valid address", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	emailClient := mailer.NewClient(
		cfg.EmailBaseURL, cfg.EmailAuthToken, sender,
		cfg.EmailTimeout, cfg.EmailSendsPerSec,
	)

	subscriberRepo := repository.NewPgSubscriberRepository(pool)
	publishRepo := repository.NewPgPublishRepository(pool)
	deliveryRepo := repository.NewPgDeliveryRepository(pool)
	userRepo := repository.NewPgUserRepository(pool)

	subscriptionSvc := service.NewSubscriptionService(subscriberRepo, emailClient, cfg.BaseURL, logger)
	publishSvc := service.NewPublishService(publishRepo, subscriberRepo, emailClient, logger)
	authSvc := service.NewAuthService(userRepo, logger)

	// ---- delivery workers ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	onSent, onFailed, onSkipped := m.WorkerHooks()
	pool2 := worker.NewPool(
		cfg.DeliveryWorkers, deliveryRepo, emailClient,
		cfg.DeliveryPollInterval, cfg.DeliveryErrorBackoff,
		logger, worker.MetricHooks{
			OnSent:    onSent,
			OnFailed:  onFailed,
			OnSkipped: onSkipped,
		},
	)
	pool2.Start(workerCtx)

	// ---- HTTP server ----
	router := api.NewRouter(subscriptionSvc, publishSvc, authSvc, m, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Signal delivery workers to stop claiming new queue rows.
	cancelWorkers()

	// 3. Wait for in-flight sends to finish. A worker killed mid-claim is
	// still safe: its transaction rolls back and the row is reclaimed.
	pool2.Wait()

	logger.Info("server stopped cleanly")
}
