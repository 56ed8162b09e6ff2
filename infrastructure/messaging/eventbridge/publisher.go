// Package eventbridge publishes run-completed notifications to AWS
// EventBridge for downstream consumers (prompt construction, digests).
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
)

const (
	eventSource     = "lorekeeper.analytics"
	completedDetail = "continuity.analysis.completed"
)

// analysisCompletedDetail is the notification payload.
type analysisCompletedDetail struct {
	UserID      string         `json:"user_id"`
	Summary     map[string]int `json:"summary"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Publisher implements ports.NotificationBus on EventBridge.
type Publisher struct {
	client       *eventbridge.Client
	eventBusName string
	logger       *zap.Logger
}

// NewPublisher creates an EventBridge notification publisher.
func NewPublisher(client *eventbridge.Client, eventBusName string, logger *zap.Logger) ports.NotificationBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		logger:       logger,
	}
}

// PublishAnalysisCompleted emits one event per completed run. Callers treat
// failures as best-effort.
func (p *Publisher) PublishAnalysisCompleted(ctx context.Context, userID string, summary map[entities.EventType]int) error {
	flat := make(map[string]int, len(summary))
	for eventType, count := range summary {
		flat[string(eventType)] = count
	}

	detail, err := json.Marshal(analysisCompletedDetail{
		UserID:      userID,
		Summary:     flat,
		CompletedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	entry := types.PutEventsRequestEntry{
		EventBusName: aws.String(p.eventBusName),
		Source:       aws.String(eventSource),
		DetailType:   aws.String(completedDetail),
		Detail:       aws.String(string(detail)),
		Time:         aws.Time(time.Now().UTC()),
		Resources: []string{
			fmt.Sprintf("arn:aws:lorekeeper::%s", userID),
		},
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{entry},
	})
	if err != nil {
		return fmt.Errorf("failed to publish to EventBridge: %w", err)
	}
	if result.FailedEntryCount > 0 {
		for _, e := range result.Entries {
			if e.ErrorCode != nil {
				p.logger.Error("notification entry rejected",
					zap.String("user_id", userID),
					zap.String("error_code", *e.ErrorCode),
					zap.String("error_message", aws.ToString(e.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d notification entries failed", result.FailedEntryCount)
	}

	p.logger.Debug("analysis completion published",
		zap.String("user_id", userID),
		zap.String("event_bus", p.eventBusName),
	)
	return nil
}
