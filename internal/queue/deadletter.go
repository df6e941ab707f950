// Package queue provides the SQS producer that forwards rejected image
// notifications to the dead-letter queue.
package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"photoalbum/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// DeadLetterForwarder sends an annotated queue body to the dead-letter queue.
// The body is sent as-is; the reason and trace id are duplicated into message
// attributes so the queue can be inspected without parsing bodies.
type DeadLetterForwarder struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

// NewDeadLetterForwarder creates a forwarder for the given queue URL.
func NewDeadLetterForwarder(client SQSSender, queueURL string, logger *slog.Logger) *DeadLetterForwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeadLetterForwarder{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// Forward sends body to the dead-letter queue. The body must already carry
// the Error field; reason is only used for the message attribute and logs.
func (f *DeadLetterForwarder) Forward(ctx context.Context, body []byte, reason string) error {
	attrs := map[string]sqsTypes.MessageAttributeValue{
		"reason": {
			DataType:    aws.String("String"),
			StringValue: aws.String(reason),
		},
	}
	traceID := types.GetTraceID(ctx)
	if traceID != "" {
		attrs["trace_id"] = sqsTypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(traceID),
		}
	}

	out, err := f.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(f.queueURL),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamQueue,
			fmt.Sprintf("queue: failed to send dead-letter message to %s", f.queueURL), err,
			map[string]any{"queue_url": f.queueURL, "reason": reason})
	}

	f.logger.InfoContext(ctx, "dead-letter message sent",
		"queue_url", f.queueURL,
		"sqs_message_id", aws.ToString(out.MessageId),
		"trace_id", traceID,
		"reason", reason,
	)
	return nil
}
