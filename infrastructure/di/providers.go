package di

import (
	"context"
	"fmt"

	"lorekeeper-backend/application/detectors"
	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/application/services"
	domainservices "lorekeeper-backend/domain/services"
	"lorekeeper-backend/infrastructure/acl"
	memcache "lorekeeper-backend/infrastructure/cache"
	"lorekeeper-backend/infrastructure/config"
	ebpublisher "lorekeeper-backend/infrastructure/messaging/eventbridge"
	dynamostore "lorekeeper-backend/infrastructure/persistence/dynamodb"
	"lorekeeper-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProvideLogger builds the zap logger from configuration.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.Set(cfg.LogLevel); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// ProvideCollector returns the process-wide metrics collector, or nil when
// metrics are disabled.
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("lorekeeper")
}

// ProvideAWSConfig loads the default AWS configuration.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates the DynamoDB client.
func ProvideDynamoDBClient(awsCfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates the EventBridge client.
func ProvideEventBridgeClient(awsCfg aws.Config) *eventbridge.Client {
	return eventbridge.NewFromConfig(awsCfg)
}

// ProvideStore creates the shared single-table DynamoDB store.
func ProvideStore(client *dynamodb.Client, cfg *config.Config, logger *zap.Logger) *dynamostore.Store {
	return dynamostore.NewStore(client, cfg.DynamoDBTable, logger)
}

// ProvideComponentRepository exposes the component query surface.
func ProvideComponentRepository(store *dynamostore.Store) ports.ComponentRepository {
	return dynamostore.NewComponentRepository(store)
}

// ProvideEntryRepository exposes raw-entry reads.
func ProvideEntryRepository(store *dynamostore.Store) ports.EntryRepository {
	return dynamostore.NewEntryRepository(store)
}

// ProvideEventRepository exposes continuity-event persistence.
func ProvideEventRepository(store *dynamostore.Store) ports.ContinuityEventRepository {
	return dynamostore.NewEventRepository(store)
}

// ProvideCharacterRepository exposes character reads.
func ProvideCharacterRepository(store *dynamostore.Store) ports.CharacterRepository {
	return dynamostore.NewCharacterRepository(store)
}

// ProvideRelationshipRepository exposes explicit-relationship reads.
func ProvideRelationshipRepository(store *dynamostore.Store) ports.RelationshipRepository {
	return dynamostore.NewRelationshipRepository(store)
}

// ProvideUserDirectory exposes the active-user listing used by scheduled runs.
func ProvideUserDirectory(store *dynamostore.Store) ports.UserDirectory {
	return dynamostore.NewUserDirectory(store)
}

// ProvideInsightStore wraps the external insight API with its circuit breaker.
func ProvideInsightStore(cfg *config.Config, logger *zap.Logger) ports.InsightStore {
	httpStore := acl.NewHTTPInsightStore(cfg.InsightAPIURL, cfg.InsightAPIKey, logger)
	return acl.NewBreakerInsightStore(httpStore, logger)
}

// ProvideNotificationBus publishes run-completed events to EventBridge.
func ProvideNotificationBus(client *eventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.NotificationBus {
	return ebpublisher.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideCache creates the in-process analytics cache backend.
func ProvideCache(cfg *config.Config, logger *zap.Logger) ports.Cache {
	return memcache.NewMemoryCache(cfg.Cache.MaxEntries, cfg.Cache.MaxBytes, logger)
}

// ProvideRules loads detector rules from the configured file, falling back to
// the compiled-in defaults when no file is configured.
func ProvideRules(cfg *config.Config, logger *zap.Logger) (detectors.Rules, error) {
	rules, err := config.LoadRules(cfg.Analysis.RulesFile)
	if err != nil {
		return detectors.Rules{}, fmt.Errorf("load detector rules: %w", err)
	}
	if cfg.Analysis.RulesFile != "" {
		logger.Info("loaded detector rules", zap.String("file", cfg.Analysis.RulesFile))
	}
	return rules, nil
}

// ProvideTextAnalyzer returns the default tokenizer and term-frequency
// analyzer.
func ProvideTextAnalyzer() domainservices.TextAnalyzer {
	return domainservices.NewDefaultTextAnalyzer()
}

// ProvideFactExtractor returns the metadata-triple fact extractor.
func ProvideFactExtractor() ports.FactExtractor {
	return detectors.NewMetadataFactExtractor()
}

// ProvideDetectors assembles the full detector set in a stable order.
func ProvideDetectors(
	rules detectors.Rules,
	analyzer domainservices.TextAnalyzer,
	extractor ports.FactExtractor,
	logger *zap.Logger,
) []detectors.Detector {
	thresholds := rules.Thresholds.Merged()
	return []detectors.Detector{
		detectors.NewContradictionDetector(extractor, logger),
		detectors.NewIdentityDriftDetector(analyzer, rules, thresholds, logger),
		detectors.NewEmotionalArcDetector(rules, logger),
		detectors.NewArcShiftDetector(analyzer, rules, thresholds, logger),
		detectors.NewAbandonedGoalDetector(rules, thresholds, logger),
		detectors.NewThematicDriftDetector(analyzer, thresholds, logger),
	}
}

// ProvideWindowFetcher creates the shared window fetcher.
func ProvideWindowFetcher(
	components ports.ComponentRepository,
	entries ports.EntryRepository,
	logger *zap.Logger,
) *services.WindowFetcher {
	return services.NewWindowFetcher(components, entries, logger)
}

// ProvideAnalyticsCache wraps the byte cache with envelope handling.
func ProvideAnalyticsCache(
	cache ports.Cache,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.AnalyticsCache {
	return services.NewAnalyticsCache(cache, metrics, logger)
}

// ProvideOrchestrator creates the continuity analysis orchestrator.
func ProvideOrchestrator(
	fetcher *services.WindowFetcher,
	detectorList []detectors.Detector,
	events ports.ContinuityEventRepository,
	insights ports.InsightStore,
	bus ports.NotificationBus,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.ContinuityOrchestrator {
	return services.NewContinuityOrchestrator(fetcher, detectorList, events, insights, bus, metrics, logger)
}

// ProvideRelationshipService creates the relationship analytics pipeline with
// the configured cache TTL.
func ProvideRelationshipService(
	characters ports.CharacterRepository,
	relationships ports.RelationshipRepository,
	components ports.ComponentRepository,
	cache *services.AnalyticsCache,
	cfg *config.Config,
	rules detectors.Rules,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.RelationshipService {
	return services.NewRelationshipService(characters, relationships, components, cache, cfg.CacheTTL(), rules, metrics, logger)
}

// ProvideBatchScheduler creates the scheduled-run batcher.
func ProvideBatchScheduler(
	directory ports.UserDirectory,
	orchestrator *services.ContinuityOrchestrator,
	relationships *services.RelationshipService,
	cfg *config.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.BatchScheduler {
	return services.NewBatchScheduler(
		directory,
		orchestrator,
		relationships,
		cfg.Analysis.BatchSize,
		cfg.BatchDelay(),
		metrics,
		logger,
	)
}
