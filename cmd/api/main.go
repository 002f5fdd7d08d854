package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/exercisetracker/internal/api"
	"example.com/exercisetracker/internal/auth"
	"example.com/exercisetracker/internal/config"
	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/logging"
	"example.com/exercisetracker/internal/outbox"
	"example.com/exercisetracker/internal/persistence"
	httptransport "example.com/exercisetracker/internal/transport/http"
)

func main() {
	cfg := config.Load()
	logger := logging.New(logging.Config{
		Service: "exercise-tracker-api",
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		File:    cfg.LogFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := persistence.Open(ctx, persistence.Options{
		Driver:      cfg.StorageDriver,
		PostgresURL: cfg.PostgresURL,
		SQLitePath:  cfg.SQLitePath,
		Migrate:     cfg.MigrateOnStart,
	})
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var dispatcher *outbox.Dispatcher
	if store.Pool != nil && len(cfg.KafkaBrokers) > 0 {
		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()

		dispatcher = outbox.NewDispatcher(outbox.NewPostgresStore(store.Pool), producer, logger, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
		go dispatcher.Start(ctx)
		logger.Info("outbox dispatcher started", "brokers", cfg.KafkaBrokers, "interval", cfg.OutboxPollInterval)
	}

	service := domain.NewService(store.Repository, store.Repository)
	handler := api.NewHandler(service,
		api.WithCompatSoftErrors(cfg.CompatSoftError),
		api.WithHealthCheck(store.Ping),
	)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	middlewares := []httptransport.Middleware{
		httptransport.RequestLogger(logger),
		httptransport.CORS(cfg.CORSOrigin),
		httptransport.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
	if cfg.AuthEnabled {
		authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, auth.PublicPaths)
		middlewares = append(middlewares, authMiddleware.Wrap)
	}

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, httptransport.Chain(httptransport.Instrument(mux), middlewares...))

	logger.Info("exercise tracker starting", "addr", cfg.HTTPAddress, "storage", cfg.StorageDriver, "auth", cfg.AuthEnabled)
	if err := httptransport.Serve(ctx, server, 15*time.Second, logger); err != nil {
		logger.Error("server error", "error", err)
	}
	stop()

	if dispatcher != nil {
		dispatcher.Wait()
	}
	logger.Info("exercise tracker stopped")
}
