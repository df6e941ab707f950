// Package main is the entrypoint for the rejection-mailer Lambda function.
//
// The function consumes the dead-letter queue (batch 5, window 5s) and emails
// the operator the rejection reason and object key of every message.
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

func newHandler(cfg *config.MailerConfig, awsCfg aws.Config, logger *logging.SlogAdapter) (*dispatch.RejectionHandler, error) {
	d, err := worker.NewDispatcher(cfg, awsCfg, worker.Metrics(cfg.Runtime, awsCfg, logger), logger)
	if err != nil {
		return nil, err
	}
	return dispatch.NewRejectionHandler(d, logger), nil
}

func main() {
	logger := logging.New(os.Getenv("LOG_LEVEL"))
	logger.Info("rejection-mailer initializing (cold start)")

	cfg, err := config.Load[config.MailerConfig](config.NewSSMProvider(os.Getenv("AWS_REGION")))
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

	worker.LogStartup(logger, "rejection-mailer", cfg.Runtime, "ses_region", cfg.Email.Region)
	worker.Start(cfg.Runtime, logger, handler.Handle)
}
