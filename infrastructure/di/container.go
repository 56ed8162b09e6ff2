// Package di wires the analytics engine together. The Container type is
// shared between the Wire injector and the generated initializer.
package di

import (
	"lorekeeper-backend/application/detectors"
	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/application/services"
	"lorekeeper-backend/infrastructure/config"
	"lorekeeper-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Collector

	Cache ports.Cache
	Rules detectors.Rules

	ComponentRepo    ports.ComponentRepository
	EntryRepo        ports.EntryRepository
	EventRepo        ports.ContinuityEventRepository
	CharacterRepo    ports.CharacterRepository
	RelationshipRepo ports.RelationshipRepository
	Directory        ports.UserDirectory
	Insights         ports.InsightStore
	Bus              ports.NotificationBus

	Fetcher        *services.WindowFetcher
	AnalyticsCache *services.AnalyticsCache
	Orchestrator   *services.ContinuityOrchestrator
	Relationships  *services.RelationshipService
	Scheduler      *services.BatchScheduler
}
