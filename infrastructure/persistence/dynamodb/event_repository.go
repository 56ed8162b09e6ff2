package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
	pkgerrors "lorekeeper-backend/pkg/errors"
)

type eventRecord struct {
	PK               string                 `dynamodbav:"PK"`
	SK               string                 `dynamodbav:"SK"`
	EntityType       string                 `dynamodbav:"EntityType"`
	EventID          string                 `dynamodbav:"EventID"`
	UserID           string                 `dynamodbav:"UserID"`
	Type             string                 `dynamodbav:"Type"`
	Description      string                 `dynamodbav:"Description"`
	SourceComponents []string               `dynamodbav:"SourceComponents,omitempty"`
	Severity         int                    `dynamodbav:"Severity"`
	Metadata         map[string]interface{} `dynamodbav:"Metadata,omitempty"`
	DetectedAt       time.Time              `dynamodbav:"DetectedAt"`
}

// EventRepository persists continuity events. Events are append-only; a
// conditional write rejects accidental overwrites of an existing event ID.
type EventRepository struct {
	*Store
}

var _ ports.ContinuityEventRepository = (*EventRepository)(nil)

// NewEventRepository creates the repository.
func NewEventRepository(store *Store) *EventRepository {
	return &EventRepository{Store: store}
}

// SaveBatch writes the detector's events. A duplicate event ID is skipped,
// not an error, so a retried run stays idempotent.
func (r *EventRepository) SaveBatch(ctx context.Context, events []entities.ContinuityEvent) error {
	for _, event := range events {
		record := eventRecord{
			PK:               userPK(event.UserID),
			SK:               timestampedSK(eventPrefix, event.DetectedAt, event.ID),
			EntityType:       "EVENT",
			EventID:          event.ID,
			UserID:           event.UserID,
			Type:             string(event.Type),
			Description:      event.Description,
			SourceComponents: event.SourceComponents,
			Severity:         event.Severity,
			Metadata:         event.Metadata,
			DetectedAt:       event.DetectedAt,
		}

		item, err := attributevalue.MarshalMap(record)
		if err != nil {
			return pkgerrors.NewInternal("failed to marshal event", err)
		}

		condition := expression.Name("PK").AttributeNotExists()
		expr, err := expression.NewBuilder().WithCondition(condition).Build()
		if err != nil {
			return pkgerrors.NewInternal("failed to build event condition", err)
		}

		_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 aws.String(r.table),
			Item:                      item,
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		if err != nil {
			if isConditionalCheckFailed(err) {
				r.logger.Debug("event already persisted, skipping",
					zap.String("event_id", event.ID))
				continue
			}
			return pkgerrors.NewUpstream("event write failed", err)
		}
	}
	return nil
}

// FindByUser returns the user's events detected since the given time, oldest
// first.
func (r *EventRepository) FindByUser(ctx context.Context, userID string, since time.Time) ([]entities.ContinuityEvent, error) {
	keyExpr := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").Between(
			expression.Value(eventPrefix+sortableTime(since)),
			expression.Value(eventPrefix+skUpperBound),
		))
	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, pkgerrors.NewInternal("failed to build event query", err)
	}

	events := make([]entities.ContinuityEvent, 0)
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.table),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, pkgerrors.NewUpstream("event query failed", err)
		}

		for _, item := range out.Items {
			var record eventRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				r.logger.Warn("skipping unreadable event item", zap.Error(err))
				continue
			}
			events = append(events, entities.ContinuityEvent{
				ID:               record.EventID,
				UserID:           record.UserID,
				Type:             entities.EventType(record.Type),
				Description:      record.Description,
				SourceComponents: record.SourceComponents,
				Severity:         record.Severity,
				Metadata:         record.Metadata,
				DetectedAt:       record.DetectedAt,
			})
		}

		if out.LastEvaluatedKey == nil {
			return events, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
