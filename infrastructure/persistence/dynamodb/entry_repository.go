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

type entryRecord struct {
	PK         string    `dynamodbav:"PK"`
	SK         string    `dynamodbav:"SK"`
	EntityType string    `dynamodbav:"EntityType"`
	EntryID    string    `dynamodbav:"EntryID"`
	UserID     string    `dynamodbav:"UserID"`
	Date       time.Time `dynamodbav:"Date"`
	Text       string    `dynamodbav:"Text"`
}

// EntryRepository reads raw journal entries from the table.
type EntryRepository struct {
	*Store
}

var _ ports.EntryRepository = (*EntryRepository)(nil)

// NewEntryRepository creates the repository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{Store: store}
}

// FindByUserSince returns the user's entries since the given time, oldest
// first, capped at limit.
func (r *EntryRepository) FindByUserSince(ctx context.Context, userID string, since time.Time, limit int) ([]entities.Entry, error) {
	keyExpr := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").Between(
			expression.Value(entryPrefix+sortableTime(since)),
			expression.Value(entryPrefix+skUpperBound),
		))
	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, pkgerrors.NewInternal("failed to build entry query", err)
	}

	entries := make([]entities.Entry, 0)
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
			return nil, pkgerrors.NewUpstream("entry query failed", err)
		}

		for _, item := range out.Items {
			var record entryRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				r.logger.Warn("skipping unreadable entry item", zap.Error(err))
				continue
			}
			entries = append(entries, entities.Entry{
				ID:     record.EntryID,
				UserID: record.UserID,
				Date:   record.Date,
				Text:   record.Text,
			})
			if limit > 0 && len(entries) >= limit {
				return entries, nil
			}
		}

		if out.LastEvaluatedKey == nil {
			return entries, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
