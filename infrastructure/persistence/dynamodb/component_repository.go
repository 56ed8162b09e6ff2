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

// componentRecord is the table shape of one memory component.
type componentRecord struct {
	PK                 string                 `dynamodbav:"PK"`
	SK                 string                 `dynamodbav:"SK"`
	EntityType         string                 `dynamodbav:"EntityType"`
	ComponentID        string                 `dynamodbav:"ComponentID"`
	EntryID            string                 `dynamodbav:"EntryID"`
	UserID             string                 `dynamodbav:"UserID"`
	Type               string                 `dynamodbav:"Type"`
	Text               string                 `dynamodbav:"Text"`
	CharactersInvolved []string               `dynamodbav:"CharactersInvolved,omitempty"`
	Location           *string                `dynamodbav:"Location,omitempty"`
	Timestamp          *time.Time             `dynamodbav:"Timestamp,omitempty"`
	CreatedAt          time.Time              `dynamodbav:"CreatedAt"`
	Tags               []string               `dynamodbav:"Tags,omitempty"`
	ImportanceScore    float64                `dynamodbav:"ImportanceScore"`
	Embedding          []float64              `dynamodbav:"Embedding,omitempty"`
	Metadata           map[string]interface{} `dynamodbav:"Metadata,omitempty"`
}

func (r componentRecord) toEntity() entities.MemoryComponent {
	return entities.MemoryComponent{
		ID:                 r.ComponentID,
		EntryID:            r.EntryID,
		UserID:             r.UserID,
		Type:               entities.ComponentType(r.Type),
		Text:               r.Text,
		CharactersInvolved: r.CharactersInvolved,
		Location:           r.Location,
		Timestamp:          r.Timestamp,
		CreatedAt:          r.CreatedAt,
		Tags:               r.Tags,
		ImportanceScore:    r.ImportanceScore,
		Embedding:          r.Embedding,
		Metadata:           r.Metadata,
	}
}

// ComponentRepository reads memory components from the table.
type ComponentRepository struct {
	*Store
}

var _ ports.ComponentRepository = (*ComponentRepository)(nil)

// NewComponentRepository creates the repository.
func NewComponentRepository(store *Store) *ComponentRepository {
	return &ComponentRepository{Store: store}
}

// FindByUserSince returns the user's components between since and until,
// oldest first, capped at limit.
func (r *ComponentRepository) FindByUserSince(ctx context.Context, userID string, since time.Time, until *time.Time, limit int) ([]entities.MemoryComponent, error) {
	lower := componentPrefix + sortableTime(since)
	upper := componentPrefix + skUpperBound
	if until != nil {
		// Trailing ~ keeps items at the until instant inside the range.
		upper = componentPrefix + sortableTime(*until) + "~"
	}

	keyExpr := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").Between(expression.Value(lower), expression.Value(upper)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, pkgerrors.NewInternal("failed to build component query", err)
	}

	components := make([]entities.MemoryComponent, 0)
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
			return nil, pkgerrors.NewUpstream("component query failed", err)
		}

		for _, item := range out.Items {
			var record componentRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				r.logger.Warn("skipping unreadable component item", zap.Error(err))
				continue
			}
			components = append(components, record.toEntity())
			if limit > 0 && len(components) >= limit {
				return components, nil
			}
		}

		if out.LastEvaluatedKey == nil {
			return components, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// CountByUser returns the user's total component count. The relationship
// cache uses it as a cheap cardinality check.
func (r *ComponentRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	keyExpr := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").BeginsWith(componentPrefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return 0, pkgerrors.NewInternal("failed to build count query", err)
	}

	total := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.table),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Select:                    types.SelectCount,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return 0, pkgerrors.NewUpstream("component count failed", err)
		}
		total += int(out.Count)
		if out.LastEvaluatedKey == nil {
			return total, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
