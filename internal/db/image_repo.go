package db

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"photoalbum/internal/types"
)

// imageIDKey is the partition key attribute of the image table.
const imageIDKey = "imageId"

// ImageRepo manages ImageRecord items. Every operation is a single-key
// request, which DynamoDB applies atomically; there is no cross-item state.
type ImageRepo struct {
	db    DynamoDBAPI
	table string
}

// NewImageRepo creates an ImageRepo for the given table.
func NewImageRepo(db DynamoDBAPI, table string) *ImageRepo {
	return &ImageRepo{db: db, table: table}
}

// Put writes the record, replacing any existing item with the same imageId.
// Redelivered created events therefore converge on the same item.
func (r *ImageRepo) Put(ctx context.Context, rec types.ImageRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalEncoding, "marshal image record", err)
	}

	_, err = r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return mapStoreError("PutItem", r.table, err)
	}
	return nil
}

// SetAttribute sets one attribute on the record keyed by imageID. The record
// is created when absent (UpdateItem upserts).
func (r *ImageRepo) SetAttribute(ctx context.Context, imageID string, name types.AttributeName, value string) error {
	_, err := r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.table),
		Key:              imageKey(imageID),
		UpdateExpression: aws.String("SET #m = :v"),
		ExpressionAttributeNames: map[string]string{
			"#m": string(name),
		},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":v": &ddbtypes.AttributeValueMemberS{Value: value},
		},
	})
	if err != nil {
		return mapStoreError("UpdateItem", r.table, err)
	}
	return nil
}

// Delete removes the record. Deleting an absent key succeeds.
func (r *ImageRepo) Delete(ctx context.Context, imageID string) error {
	_, err := r.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       imageKey(imageID),
	})
	if err != nil {
		return mapStoreError("DeleteItem", r.table, err)
	}
	return nil
}

func imageKey(imageID string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		imageIDKey: &ddbtypes.AttributeValueMemberS{Value: imageID},
	}
}
