package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/pkg/observability"
)

const (
	// DefaultBatchSize is how many users one batch analyzes concurrently.
	DefaultBatchSize = 4
	// DefaultBatchDelay separates consecutive batches to throttle load on
	// the embedding backend and the datastore.
	DefaultBatchDelay = 1500 * time.Millisecond
)

// TriggerDaily and TriggerWeekly identify the two scheduled run kinds. Weekly
// runs additionally recompute relationship analytics.
const (
	TriggerDaily  = "daily"
	TriggerWeekly = "weekly"
)

// BatchReport summarizes one full-population run.
type BatchReport struct {
	Trigger   string
	Users     int
	Succeeded int
	Failed    int
}

// UserAnalyzer runs continuity analysis for one user. The orchestrator is the
// production implementation.
type UserAnalyzer interface {
	RunAnalysis(ctx context.Context, userID string) (*AnalysisResult, error)
}

// RelationshipRunner recomputes relationship analytics for one user.
type RelationshipRunner interface {
	Run(ctx context.Context, userID string) (*RelationshipPayload, error)
}

// BatchScheduler walks the active user population in small concurrent batches.
// Per-user failures are logged and counted; they never stop the batch or the
// run. There are no retries: the next scheduled cycle self-heals.
type BatchScheduler struct {
	directory     ports.UserDirectory
	orchestrator  UserAnalyzer
	relationships RelationshipRunner
	batchSize     int
	delay         time.Duration
	metrics       *observability.Collector
	logger        *zap.Logger
	sleep         func(time.Duration)
}

// NewBatchScheduler wires a scheduler. Zero batchSize or delay fall back to
// the defaults.
func NewBatchScheduler(
	directory ports.UserDirectory,
	orchestrator UserAnalyzer,
	relationships RelationshipRunner,
	batchSize int,
	delay time.Duration,
	metrics *observability.Collector,
	logger *zap.Logger,
) *BatchScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if delay <= 0 {
		delay = DefaultBatchDelay
	}
	return &BatchScheduler{
		directory:     directory,
		orchestrator:  orchestrator,
		relationships: relationships,
		batchSize:     batchSize,
		delay:         delay,
		metrics:       metrics,
		logger:        logger,
		sleep:         time.Sleep,
	}
}

// WithSleep overrides the inter-batch sleep for tests.
func (s *BatchScheduler) WithSleep(sleep func(time.Duration)) *BatchScheduler {
	s.sleep = sleep
	return s
}

// RunAll analyzes the whole active population for one trigger kind.
func (s *BatchScheduler) RunAll(ctx context.Context, trigger string) (BatchReport, error) {
	report := BatchReport{Trigger: trigger}

	userIDs, err := s.directory.ListActiveUserIDs(ctx)
	if err != nil {
		return report, err
	}
	report.Users = len(userIDs)

	for start := 0; start < len(userIDs); start += s.batchSize {
		end := start + s.batchSize
		if end > len(userIDs) {
			end = len(userIDs)
		}
		batch := userIDs[start:end]

		results := make(chan error, len(batch))
		for _, userID := range batch {
			go func(userID string) {
				results <- s.processUser(ctx, userID, trigger)
			}(userID)
		}
		for range batch {
			if err := <-results; err != nil {
				report.Failed++
				if s.metrics != nil {
					s.metrics.ScheduledFailures.Inc()
				}
				continue
			}
			report.Succeeded++
		}

		if s.metrics != nil {
			s.metrics.ScheduledBatches.Inc()
		}
		if end < len(userIDs) {
			s.sleep(s.delay)
		}
	}

	s.logger.Info("scheduled run complete",
		zap.String("trigger", trigger),
		zap.Int("users", report.Users),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *BatchScheduler) processUser(ctx context.Context, userID, trigger string) error {
	if _, err := s.orchestrator.RunAnalysis(ctx, userID); err != nil {
		s.logger.Error("user analysis failed, continuing batch",
			zap.String("user_id", userID),
			zap.String("trigger", trigger),
			zap.Error(err),
		)
		return err
	}
	if trigger == TriggerWeekly && s.relationships != nil {
		if _, err := s.relationships.Run(ctx, userID); err != nil {
			s.logger.Error("relationship analytics failed, continuing batch",
				zap.String("user_id", userID),
				zap.String("trigger", trigger),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}
