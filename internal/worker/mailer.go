package worker

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"photoalbum/internal/config"
	"photoalbum/internal/logging"
	"photoalbum/internal/metrics"
	"photoalbum/internal/notifications/dispatch"
	"photoalbum/internal/notifications/email"
	"photoalbum/internal/types"
)

// NewDispatcher wires the SES-backed email channel of both mailers. SES is
// called in SES_REGION, which may differ from the function's region.
func NewDispatcher(cfg *config.MailerConfig, awsCfg aws.Config, rec metrics.Recorder, logger *logging.SlogAdapter) (*dispatch.Dispatcher, error) {
	sesClient := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
		o.Region = cfg.Email.Region
	})
	return newDispatcher(cfg, sesClient, rec, logger)
}

func newDispatcher(cfg *config.MailerConfig, api email.SESAPI, rec metrics.Recorder, logger *logging.SlogAdapter) (*dispatch.Dispatcher, error) {
	renderer, err := email.NewRenderer(types.SenderIdentity{
		Name:    cfg.Email.FromName,
		Address: cfg.Email.FromAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize email renderer: %w", err)
	}

	provider := email.NewBreakerProvider("ses", email.NewSESProvider(api, cfg.Email.ConfigurationSet),
		email.BreakerSettings{Logger: logger.Slog()})
	channel := email.NewChannel(provider, renderer, cfg.Email.ToAddress.Unmask(), logger)
	return dispatch.NewDispatcher(channel, rec, logger), nil
}
