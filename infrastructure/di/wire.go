//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"lorekeeper-backend/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideCollector,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideStore,
	ProvideComponentRepository,
	ProvideEntryRepository,
	ProvideEventRepository,
	ProvideCharacterRepository,
	ProvideRelationshipRepository,
	ProvideUserDirectory,
	ProvideInsightStore,
	ProvideNotificationBus,
	ProvideCache,
	ProvideRules,
	ProvideTextAnalyzer,
	ProvideFactExtractor,
	ProvideDetectors,
	ProvideWindowFetcher,
	ProvideAnalyticsCache,
	ProvideOrchestrator,
	ProvideRelationshipService,
	ProvideBatchScheduler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
