package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/flood-resilience-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/flood-resilience-service/internal/adapter/kafka"
	"github.com/couchcryptid/flood-resilience-service/internal/adapter/openai"
	"github.com/couchcryptid/flood-resilience-service/internal/catalog"
	"github.com/couchcryptid/flood-resilience-service/internal/config"
	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"github.com/couchcryptid/flood-resilience-service/internal/observability"
	"github.com/couchcryptid/flood-resilience-service/internal/simulation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	cat, err := catalog.Load(cfg.ReferenceDataDir)
	if err != nil {
		logger.Error("failed to load reference data", "dir", cfg.ReferenceDataDir, "error", err)
		os.Exit(1)
	}
	logger.Info("reference data loaded", "dir", cfg.ReferenceDataDir, "scenarios", cat.Scenarios())

	// Recommendation generator (feature-flagged via OPENAI_ENABLED / OPENAI_API_KEY).
	var generator domain.RecommendationGenerator
	if cfg.OpenAIEnabled {
		client := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.GeneratorTimeout, logger, metrics)
		generator = openai.NewCachedGenerator(client, cfg.GeneratorCacheSize, metrics)
		metrics.GeneratorEnabled.Set(1)
		logger.Info("recommendation generator enabled",
			"model", cfg.OpenAIModel, "cache_size", cfg.GeneratorCacheSize, "timeout", cfg.GeneratorTimeout)
	} else {
		logger.Info("recommendation generator disabled")
	}

	orch := simulation.New(cat, generator, simulation.Options{
		TargetYear:       cfg.TargetYear,
		ClimateScenario:  cfg.ClimateScenario,
		BuildingType:     cfg.BuildingType,
		AppendTargetYear: cfg.AppendTargetYear,
		GeneratorTimeout: cfg.GeneratorTimeout,
	}, logger, metrics)

	var (
		publisher httpadapter.ResultPublisher
		writer    *kafkaadapter.Writer
	)
	if cfg.PublishEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		publisher = writer
		logger.Info("result publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaResultsTopic)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, orch, cat, publisher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	logger.Info("shutdown complete")
}
