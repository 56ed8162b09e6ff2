package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lorekeeper-backend/application/services"
	"lorekeeper-backend/infrastructure/config"
	"lorekeeper-backend/infrastructure/di"
	"lorekeeper-backend/pkg/observability"

	"go.uber.org/zap"
)

const (
	dailyInterval = 24 * time.Hour
	weeklyDay     = time.Sunday
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer container.Logger.Sync()

	if cfg.EnableTracing {
		tp, err := observability.InitTracing("lorekeeper-worker", cfg.Environment, cfg.TracingEndpoint)
		if err != nil {
			container.Logger.Warn("tracing disabled, exporter init failed", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				_ = tp.Shutdown(shutdownCtx)
			}()
		}
	}

	container.Logger.Info("Starting worker service",
		zap.String("environment", cfg.Environment),
		zap.Int("batch_size", cfg.Analysis.BatchSize),
	)

	go runScheduledAnalyses(ctx, container.Scheduler, container.Logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	container.Logger.Info("Shutting down worker service...")
	cancel()
}

// runScheduledAnalyses fires one scheduled run per day. Sundays get the
// weekly trigger, which additionally recomputes relationship analytics; every
// other day runs the daily continuity pass.
func runScheduledAnalyses(ctx context.Context, scheduler *services.BatchScheduler, logger *zap.Logger) {
	ticker := time.NewTicker(dailyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduled analysis loop stopped")
			return
		case tick := <-ticker.C:
			trigger := services.TriggerDaily
			if tick.UTC().Weekday() == weeklyDay {
				trigger = services.TriggerWeekly
			}

			report, err := scheduler.RunAll(ctx, trigger)
			if err != nil {
				logger.Error("Scheduled run failed to start", zap.String("trigger", trigger), zap.Error(err))
				continue
			}
			logger.Info("Scheduled run finished",
				zap.String("trigger", trigger),
				zap.Int("users", report.Users),
				zap.Int("succeeded", report.Succeeded),
				zap.Int("failed", report.Failed),
			)
		}
	}
}
