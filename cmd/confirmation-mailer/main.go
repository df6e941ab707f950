// Package main is the entrypoint for the confirmation-mailer Lambda function.
//
// The function can be subscribed to the upload topic or attached to the
// metadata table's stream; the handler detects which from the payload. For
// every accepted upload it emails the operator the object's s3:// location.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"

	"photoalbum/internal/config"
	"photoalbum/internal/logging"
	"photoalbum/internal/notifications/dispatch"
	"photoalbum/internal/worker"
)

func newHandler(cfg *config.ConfirmationConfig, awsCfg aws.Config, logger *logging.SlogAdapter) (*dispatch.ConfirmationHandler, error) {
	rec := worker.Metrics(cfg.Runtime, awsCfg, logger)
	d, err := worker.NewDispatcher(&cfg.MailerConfig, awsCfg, rec, logger)
	if err != nil {
		return nil, err
	}
	return dispatch.NewConfirmationHandler(d, cfg.BucketName, rec, logger), nil
}

func main() {
	logger := logging.New(os.Getenv("LOG_LEVEL"))
	logger.Info("confirmation-mailer initializing (cold start)")

	cfg, err := config.Load[config.ConfirmationConfig](config.NewSSMProvider(os.Getenv("AWS_REGION")))
	if err != nil {
		logger.Error("failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	awsCfg, err := worker.AWSConfig(context.Background(), cfg.Runtime)
	if err != nil {
		logger.Error("failed to load AWS SDK config", "error", err.Error())
		os.Exit(1)
	}

	handler, err := newHandler(cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to initialize handler", "error", err.Error())
		os.Exit(1)
	}

	worker.LogStartup(logger, "confirmation-mailer", cfg.Runtime,
		"ses_region", cfg.Email.Region,
		"bucket", cfg.BucketName,
	)
	worker.Start(cfg.Runtime, logger, handler.Handle)
}
