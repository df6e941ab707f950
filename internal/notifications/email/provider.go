package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sony/gobreaker/v2"

	"photoalbum/internal/types"
)

// Provider sends one pre-rendered email and returns the provider message id.
type Provider interface {
	Send(ctx context.Context, input types.SendInput) (string, error)
}

// SESAPI defines the subset of the SES v2 client used by SESProvider.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

var _ SESAPI = (*sesv2.Client)(nil)

// SESProvider implements Provider using AWS SES v2 simple content.
// Authentication is handled via the function's IAM role.
type SESProvider struct {
	api           SESAPI
	configSetName string
}

// NewSESProvider creates an SESProvider. configSetName is optional.
func NewSESProvider(api SESAPI, configSetName string) *SESProvider {
	return &SESProvider{api: api, configSetName: configSetName}
}

// Send transmits input via SendEmail.
//
// Error mapping:
//   - MessageRejected -> ErrCodeEmailBlocked
//   - TooManyRequestsException -> ErrCodeUpstreamRateLimited
//   - SendingPausedException -> ErrCodeUpstreamUnavailable
//   - Other -> ErrCodeUpstreamEmailProvider
func (s *SESProvider) Send(ctx context.Context, input types.SendInput) (string, error) {
	fromAddr := input.From.Address
	if input.From.Name != "" {
		fromAddr = fmt.Sprintf("%s <%s>", input.From.Name, input.From.Address)
	}

	body := &sestypes.Body{}
	if input.BodyHTML != "" {
		body.Html = &sestypes.Content{Data: aws.String(input.BodyHTML), Charset: aws.String("UTF-8")}
	}
	if input.BodyText != "" {
		body.Text = &sestypes.Content{Data: aws.String(input.BodyText), Charset: aws.String("UTF-8")}
	}

	emailInput := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddr),
		Destination: &sestypes.Destination{
			ToAddresses: []string{input.To},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(input.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}
	if s.configSetName != "" {
		emailInput.ConfigurationSetName = aws.String(s.configSetName)
	}
	if input.ReferenceID != "" {
		emailInput.EmailTags = []sestypes.MessageTag{
			{Name: aws.String("ReferenceID"), Value: aws.String(input.ReferenceID)},
		}
	}

	result, err := s.api.SendEmail(ctx, emailInput)
	if err != nil {
		return "", mapSESError(err)
	}
	return aws.ToString(result.MessageId), nil
}

// mapSESError translates AWS SES errors into domain AppErrors.
func mapSESError(err error) error {
	var msgRejected *sestypes.MessageRejected
	if errors.As(err, &msgRejected) {
		return types.NewAppError(types.ErrCodeEmailBlocked, fmt.Sprintf("SES rejected message: %v", err), err)
	}

	var tooManyReqs *sestypes.TooManyRequestsException
	if errors.As(err, &tooManyReqs) {
		return types.NewAppError(types.ErrCodeUpstreamRateLimited, fmt.Sprintf("SES rate limit exceeded: %v", err), err)
	}

	var sendingPaused *sestypes.SendingPausedException
	if errors.As(err, &sendingPaused) {
		return types.NewAppError(types.ErrCodeUpstreamUnavailable, fmt.Sprintf("SES account sending paused: %v", err), err)
	}

	return types.NewAppError(types.ErrCodeUpstreamEmailProvider, fmt.Sprintf("SES error: %v", err), err)
}

var _ Provider = (*SESProvider)(nil)

// BreakerProvider guards a Provider with a circuit breaker. A mailer handles
// a batch of records inside a few seconds; once SES has failed repeatedly the
// remaining sends fail fast instead of each waiting on the SDK's retries.
type BreakerProvider struct {
	next    Provider
	breaker *gobreaker.CircuitBreaker[string]
}

// BreakerSettings tunes the breaker. Zero values take the defaults.
type BreakerSettings struct {
	// MaxConsecutiveFailures trips the breaker when exceeded. Default 5.
	MaxConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open. Default 30s.
	OpenTimeout time.Duration
	Logger      *slog.Logger
}

// NewBreakerProvider wraps next.
func NewBreakerProvider(name string, next Provider, s BreakerSettings) *BreakerProvider {
	if s.MaxConsecutiveFailures == 0 {
		s.MaxConsecutiveFailures = 5
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > s.MaxConsecutiveFailures
		},
		// A blocked recipient says nothing about the provider's health.
		IsSuccessful: func(err error) bool {
			return err == nil || IsBlocklistError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("email circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return &BreakerProvider{next: next, breaker: cb}
}

// Send forwards to the wrapped provider unless the breaker is open.
func (b *BreakerProvider) Send(ctx context.Context, input types.SendInput) (string, error) {
	id, err := b.breaker.Execute(func() (string, error) {
		return b.next.Send(ctx, input)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", types.NewAppError(types.ErrCodeUpstreamUnavailable, "email provider circuit open", err)
	}
	return id, err
}

// State exposes the breaker state for logs and tests.
func (b *BreakerProvider) State() gobreaker.State {
	return b.breaker.State()
}

var _ Provider = (*BreakerProvider)(nil)
