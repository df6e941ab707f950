// Package db provides the DynamoDB-backed image metadata repository. The
// repository accepts a DynamoDBAPI interface that is satisfied by
// *dynamodb.Client and by the in-memory table in dbtest.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"photoalbum/internal/types"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the repository.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ DynamoDBAPI = (*dynamodb.Client)(nil)

// mapStoreError translates DynamoDB errors into domain AppErrors. Throttling
// is reported separately so that callers and metrics can tell it apart from
// an outage.
func mapStoreError(op, table string, err error) error {
	details := map[string]any{"operation": op, "table": table}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		details["aws_error_code"] = apiErr.ErrorCode()
	}

	var throughput *ddbtypes.ProvisionedThroughputExceededException
	var requestLimit *ddbtypes.RequestLimitExceeded
	if errors.As(err, &throughput) || errors.As(err, &requestLimit) {
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamRateLimited,
			fmt.Sprintf("DynamoDB %s throttled", op), err, details)
	}

	var conditional *ddbtypes.ConditionalCheckFailedException
	if errors.As(err, &conditional) {
		return types.NewAppErrorWithDetails(types.ErrCodeNotFoundImage,
			fmt.Sprintf("DynamoDB %s condition failed", op), err, details)
	}

	return types.NewAppErrorWithDetails(types.ErrCodeUpstreamStore,
		fmt.Sprintf("DynamoDB %s failed: %v", op, err), err, details)
}
