// Package main is the entrypoint for the image-logger Lambda function.
//
// The function consumes the image queue (batch 5, window 5s). Each message is
// a bus envelope around a storage event; created images with an accepted
// extension are recorded in the metadata table, other uploads are forwarded
// to the dead-letter queue with an Error reason, and removed objects have
// their record deleted.
//
// Cold Start (main):
//  1. Initialize structured logger.
//  2. Load and validate IngestConfig (exit 1 on failure).
//  3. Load AWS SDK configuration.
//  4. Initialize DynamoDB, SQS and (optionally) S3 clients.
//  5. Register handler and call lambda.Start.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"photoalbum/internal/config"
	"photoalbum/internal/db"
	"photoalbum/internal/ingest"
	"photoalbum/internal/logging"
	"photoalbum/internal/objects"
	"photoalbum/internal/queue"
	"photoalbum/internal/worker"
)

func newHandler(cfg *config.IngestConfig, awsCfg aws.Config, logger *logging.SlogAdapter) *ingest.Handler {
	repo := db.NewImageRepo(dynamodb.NewFromConfig(awsCfg), cfg.TableName)
	dlq := queue.NewDeadLetterForwarder(sqs.NewFromConfig(awsCfg), cfg.DLQURL, logger.Slog())

	opts := ingest.Options{
		Concurrency: cfg.Concurrency,
		Metrics:     worker.Metrics(cfg.Runtime, awsCfg, logger),
	}
	if cfg.VerifyObjectExists {
		opts.Probe = objects.NewProbe(s3.NewFromConfig(awsCfg), cfg.BucketName)
	}
	return ingest.NewHandler(repo, dlq, logger, opts)
}

func main() {
	logger := logging.New(os.Getenv("LOG_LEVEL"))
	logger.Info("image-logger initializing (cold start)")

	cfg, err := config.Load[config.IngestConfig](config.NewSSMProvider(os.Getenv("AWS_REGION")))
	if err != nil {
		logger.Error("failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	awsCfg, err := worker.AWSConfig(context.Background(), cfg.Runtime)
	if err != nil {
		logger.Error("failed to load AWS SDK config", "error", err.Error())
		os.Exit(1)
	}

	handler := newHandler(cfg, awsCfg, logger)

	worker.LogStartup(logger, "image-logger", cfg.Runtime,
		"table", cfg.TableName,
		"verify_object_exists", cfg.VerifyObjectExists,
		"concurrency", cfg.Concurrency,
	)
	worker.Start(cfg.Runtime, logger, handler.Handle)
}
