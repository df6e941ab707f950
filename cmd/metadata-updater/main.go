// Package main is the entrypoint for the metadata-updater Lambda function.
//
// The function is subscribed to the metadata topic. Each notification names
// the attribute in its metadata_type message attribute and carries
// {"id","value"} in its body; the attribute is set on the image record.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"photoalbum/internal/config"
	"photoalbum/internal/db"
	"photoalbum/internal/logging"
	"photoalbum/internal/metadata"
	"photoalbum/internal/worker"
)

func newUpdater(cfg *config.UpdaterConfig, awsCfg aws.Config, logger *logging.SlogAdapter) *metadata.Updater {
	repo := db.NewImageRepo(dynamodb.NewFromConfig(awsCfg), cfg.TableName)
	return metadata.NewUpdater(repo, worker.Metrics(cfg.Runtime, awsCfg, logger), logger)
}

func main() {
	logger := logging.New(os.Getenv("LOG_LEVEL"))
	logger.Info("metadata-updater initializing (cold start)")

	cfg, err := config.Load[config.UpdaterConfig](config.NewSSMProvider(os.Getenv("AWS_REGION")))
	if err != nil {
		logger.Error("failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	awsCfg, err := worker.AWSConfig(context.Background(), cfg.Runtime)
	if err != nil {
		logger.Error("failed to load AWS SDK config", "error", err.Error())
		os.Exit(1)
	}

	updater := newUpdater(cfg, awsCfg, logger)

	worker.LogStartup(logger, "metadata-updater", cfg.Runtime, "table", cfg.TableName)
	worker.Start(cfg.Runtime, logger, updater.Handle)
}
