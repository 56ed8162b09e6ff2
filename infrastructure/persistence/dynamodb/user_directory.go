package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"lorekeeper-backend/application/ports"
	pkgerrors "lorekeeper-backend/pkg/errors"
)

// UserDirectory lists active users from their profile items. The scan is
// bounded by the size of the user base, not the journal corpus, and only
// scheduled runs use it.
type UserDirectory struct {
	*Store
}

var _ ports.UserDirectory = (*UserDirectory)(nil)

// NewUserDirectory creates the directory.
func NewUserDirectory(store *Store) *UserDirectory {
	return &UserDirectory{Store: store}
}

// ListActiveUserIDs returns every user with a profile item.
func (d *UserDirectory) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	filter := expression.Name("EntityType").Equal(expression.Value("PROFILE"))
	projection := expression.NamesList(expression.Name("UserID"))
	expr, err := expression.NewBuilder().WithFilter(filter).WithProjection(projection).Build()
	if err != nil {
		return nil, pkgerrors.NewInternal("failed to build profile scan", err)
	}

	userIDs := make([]string, 0)
	var startKey map[string]types.AttributeValue
	for {
		out, err := d.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(d.table),
			FilterExpression:          expr.Filter(),
			ProjectionExpression:      expr.Projection(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, pkgerrors.NewUpstream("profile scan failed", err)
		}

		for _, item := range out.Items {
			if v, ok := item["UserID"].(*types.AttributeValueMemberS); ok {
				userIDs = append(userIDs, v.Value)
			}
		}

		if out.LastEvaluatedKey == nil {
			return userIDs, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
