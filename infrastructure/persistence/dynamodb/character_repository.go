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

type characterRecord struct {
	PK               string    `dynamodbav:"PK"`
	SK               string    `dynamodbav:"SK"`
	EntityType       string    `dynamodbav:"EntityType"`
	CharacterID      string    `dynamodbav:"CharacterID"`
	UserID           string    `dynamodbav:"UserID"`
	Name             string    `dynamodbav:"Name"`
	Embedding        []float64 `dynamodbav:"Embedding,omitempty"`
	InteractionScore float64   `dynamodbav:"InteractionScore"`
	SentimentToward  float64   `dynamodbav:"SentimentToward"`
	CreatedAt        time.Time `dynamodbav:"CreatedAt"`
}

type relationshipRecord struct {
	PK          string  `dynamodbav:"PK"`
	SK          string  `dynamodbav:"SK"`
	EntityType  string  `dynamodbav:"EntityType"`
	UserID      string  `dynamodbav:"UserID"`
	CharacterA  string  `dynamodbav:"CharacterA"`
	CharacterB  string  `dynamodbav:"CharacterB"`
	Closeness   float64 `dynamodbav:"Closeness"`
	Description string  `dynamodbav:"Description,omitempty"`
}

// CharacterRepository reads characters and explicit relationships.
type CharacterRepository struct {
	*Store
}

var (
	_ ports.CharacterRepository    = (*CharacterRepository)(nil)
	_ ports.RelationshipRepository = (*RelationshipRepository)(nil)
)

// NewCharacterRepository creates the repository. It serves both the character
// and the relationship port; the records live under the same partition.
func NewCharacterRepository(store *Store) *CharacterRepository {
	return &CharacterRepository{Store: store}
}

// FindByUser returns every character in the user's corpus.
func (r *CharacterRepository) FindByUser(ctx context.Context, userID string) ([]entities.Character, error) {
	items, err := r.queryPrefix(ctx, userID, characterPrefix)
	if err != nil {
		return nil, err
	}

	characters := make([]entities.Character, 0, len(items))
	for _, item := range items {
		var record characterRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			r.logger.Warn("skipping unreadable character item", zap.Error(err))
			continue
		}
		characters = append(characters, entities.Character{
			ID:               record.CharacterID,
			UserID:           record.UserID,
			Name:             record.Name,
			Embedding:        record.Embedding,
			InteractionScore: record.InteractionScore,
			SentimentToward:  record.SentimentToward,
			CreatedAt:        record.CreatedAt,
		})
	}
	return characters, nil
}

// FindByUser on the relationship port returns the explicit stored
// relationships.
func (r *CharacterRepository) findRelationships(ctx context.Context, userID string) ([]entities.StoredRelationship, error) {
	items, err := r.queryPrefix(ctx, userID, relationshipPrefix)
	if err != nil {
		return nil, err
	}

	relationships := make([]entities.StoredRelationship, 0, len(items))
	for _, item := range items {
		var record relationshipRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			r.logger.Warn("skipping unreadable relationship item", zap.Error(err))
			continue
		}
		relationships = append(relationships, entities.StoredRelationship{
			UserID:      record.UserID,
			CharacterA:  record.CharacterA,
			CharacterB:  record.CharacterB,
			Closeness:   record.Closeness,
			Description: record.Description,
		})
	}
	return relationships, nil
}

// RelationshipRepository exposes the relationship port backed by the same
// store.
type RelationshipRepository struct {
	*CharacterRepository
}

// NewRelationshipRepository creates the relationship view of the store.
func NewRelationshipRepository(store *Store) *RelationshipRepository {
	return &RelationshipRepository{CharacterRepository: NewCharacterRepository(store)}
}

// FindByUser returns the user's explicit relationships.
func (r *RelationshipRepository) FindByUser(ctx context.Context, userID string) ([]entities.StoredRelationship, error) {
	return r.findRelationships(ctx, userID)
}

func (r *CharacterRepository) queryPrefix(ctx context.Context, userID, prefix string) ([]map[string]types.AttributeValue, error) {
	keyExpr := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").BeginsWith(prefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, pkgerrors.NewInternal("failed to build query", err)
	}

	items := make([]map[string]types.AttributeValue, 0)
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
			return nil, pkgerrors.NewUpstream("query failed", err)
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			return items, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
