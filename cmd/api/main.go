package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lorekeeper-backend/application/detectors"
	"lorekeeper-backend/infrastructure/config"
	"lorekeeper-backend/infrastructure/di"
	"lorekeeper-backend/interfaces/http/rest"
	"lorekeeper-backend/pkg/observability"

	"go.uber.org/zap"
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
		tp, err := observability.InitTracing("lorekeeper-api", cfg.Environment, cfg.TracingEndpoint)
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

	// Hot-reload detector rules into the running orchestrator.
	if cfg.Analysis.WatchRules && cfg.Analysis.RulesFile != "" {
		watcher, err := config.NewRulesWatcher(cfg.Analysis.RulesFile, container.Logger)
		if err != nil {
			container.Logger.Warn("rules watcher unavailable", zap.Error(err))
		} else {
			analyzer := di.ProvideTextAnalyzer()
			extractor := di.ProvideFactExtractor()
			watcher.OnChange(func(rules detectors.Rules) {
				container.Orchestrator.ReplaceDetectors(
					di.ProvideDetectors(rules, analyzer, extractor, container.Logger))
				container.Logger.Info("detector rules reloaded")
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	router := rest.NewRouter(
		container.Orchestrator,
		container.Relationships,
		container.AnalyticsCache,
		container.EventRepo,
		container.Metrics,
		container.Logger,
		cfg.EnableCORS,
	)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		container.Logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	container.Logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Server shutdown failed", zap.Error(err))
	}
}
