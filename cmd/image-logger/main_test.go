package main

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoalbum/internal/config"
	"photoalbum/internal/logging"
)

func testConfig() *config.IngestConfig {
	return &config.IngestConfig{
		TableName:   "ImageTable",
		DLQURL:      "https://sqs.eu-west-1.amazonaws.com/123456789012/image-dlq",
		BucketName:  "image-upload-bucket",
		Concurrency: 1,
	}
}

func TestNewHandler_EmptyBatch(t *testing.T) {
	for _, verify := range []bool{false, true} {
		cfg := testConfig()
		cfg.VerifyObjectExists = verify

		h := newHandler(cfg, aws.Config{Region: "eu-west-1"}, logging.Discard())
		require.NotNil(t, h)
		assert.NoError(t, h.Handle(context.Background(), events.SQSEvent{}))
	}
}

func TestNewHandler_TestEventMakesNoCalls(t *testing.T) {
	h := newHandler(testConfig(), aws.Config{Region: "eu-west-1"}, logging.Discard())

	ev := events.SQSEvent{Records: []events.SQSMessage{{
		MessageId: "m-1",
		Body:      `{"Type":"Notification","Message":"{\"Service\":\"Amazon S3\",\"Event\":\"s3:TestEvent\"}"}`,
	}}}
	assert.NoError(t, h.Handle(context.Background(), ev))
}
