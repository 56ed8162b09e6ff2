// Package dynamodb implements the persistence ports on a single DynamoDB
// table. Items share a USER#<id> partition key; the sort key prefix carries
// the entity type and, for time-ordered entities, an RFC3339 timestamp so a
// key range query returns a chronological window.
package dynamodb

import (
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const (
	componentPrefix    = "COMPONENT#"
	entryPrefix        = "ENTRY#"
	eventPrefix        = "EVENT#"
	characterPrefix    = "CHARACTER#"
	relationshipPrefix = "RELATIONSHIP#"
	profileSortKey     = "PROFILE"

	// skUpperBound sorts after every timestamped sort key.
	skUpperBound = "9999-12-31T23:59:59Z"
)

// Store bundles the DynamoDB client and table settings the repositories
// share.
type Store struct {
	client *dynamodb.Client
	table  string
	logger *zap.Logger
}

// NewStore creates the shared store.
func NewStore(client *dynamodb.Client, table string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, table: table, logger: logger}
}

func userPK(userID string) string {
	return "USER#" + userID
}

func sortableTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// isConditionalCheckFailed reports whether an error is a DynamoDB conditional
// write rejection.
func isConditionalCheckFailed(err error) bool {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return ae.ErrorCode() == "ConditionalCheckFailedException"
	}
	return false
}

func timestampedSK(prefix string, t time.Time, id string) string {
	return fmt.Sprintf("%s%s#%s", prefix, sortableTime(t), id)
}
