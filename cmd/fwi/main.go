package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/fwi-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/fwi-service/internal/adapter/kafka"
	"github.com/couchcryptid/fwi-service/internal/artifact"
	"github.com/couchcryptid/fwi-service/internal/config"
	"github.com/couchcryptid/fwi-service/internal/observability"
	"github.com/couchcryptid/fwi-service/internal/predict"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bundle, err := artifact.NewLoader(cfg.ArtifactDir, logger).Load(ctx)
	if err != nil {
		logger.Error("failed to load artifacts", "error", err)
		os.Exit(1)
	}
	if !bundle.Registry.Has(cfg.DefaultModel) {
		logger.Error("default model is not in the artifact store", "default_model", cfg.DefaultModel, "models", bundle.Registry.Names())
		os.Exit(1)
	}
	metrics.ModelsLoaded.Set(float64(len(bundle.Registry.Names())))

	svc := predict.New(bundle.Scaler, bundle.Registry, logger, metrics)

	// The HTTP layer only needs Run, Models and CheckReadiness, which both
	// the plain and the cached service provide.
	var served interface {
		httpadapter.Predictor
		httpadapter.ReadinessChecker
	} = svc

	var redisClient *redis.Client
	switch cfg.CacheBackend {
	case config.CacheMemory:
		served = predict.NewCachedService(svc, predict.NewMemoryCache(cfg.CacheSize))
		logger.Info("prediction cache enabled", "backend", cfg.CacheBackend, "size", cfg.CacheSize)
	case config.CacheRedis:
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		cache := predict.NewRedisCache(redisClient, cfg.CacheTTL, bundle.Digest)
		if err := cache.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, predictions will bypass the cache until it recovers", "addr", cfg.RedisAddr, "error", err)
		}
		served = predict.NewCachedService(svc, cache)
		logger.Info("prediction cache enabled", "backend", cfg.CacheBackend, "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL, "version", bundle.Digest)
	default:
		logger.Info("prediction cache disabled")
	}

	opts := httpadapter.Options{DefaultModel: cfg.DefaultModel, Metrics: metrics}
	var writer *kafkaadapter.Writer
	if cfg.PublishEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts.Publisher = writer
		logger.Info("prediction events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaPredictionTopic)
	} else {
		logger.Info("prediction events disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, served, served, opts, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
