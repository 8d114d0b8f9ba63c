package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/rain-prediction-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/rain-prediction-service/internal/adapter/kafka"
	"github.com/couchcryptid/rain-prediction-service/internal/app"
	"github.com/couchcryptid/rain-prediction-service/internal/config"
	"github.com/couchcryptid/rain-prediction-service/internal/observability"
	"github.com/couchcryptid/rain-prediction-service/internal/pipeline"
	"github.com/couchcryptid/rain-prediction-service/internal/scheduler"
	"github.com/jonboulle/clockwork"
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

	if err := run(ctx, cfg, logger, metrics); err != nil {
		logger.Error("service stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

// run serves until ctx is cancelled. A missing or invalid model aborts
// startup before any listener or consumer is started.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	model, err := app.LoadModel(cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	clock := clockwork.NewRealClock()
	svc, cache := app.NewService(cfg, model, clock, logger, metrics)
	ready := httpadapter.Readiness{svc}

	// Kafka request stream (feature-flagged via KAFKA_ENABLED).
	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(svc, clock, logger)
		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		ready = append(ready, p)

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("kafka request stream disabled")
	}

	// Cache warmer only makes sense when there is a cache to warm.
	var warmer *scheduler.Warmer
	if cache != nil && len(cfg.WarmLocations) > 0 {
		warmer = scheduler.New(cfg.WarmLocations, cfg.WarmInterval, cache, svc, logger, metrics)
		if err := warmer.Start(); err != nil {
			logger.Error("cache warmer failed to start", "error", err)
		}
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, svc, cfg.PopularLocations, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if warmer != nil {
		warmer.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}
