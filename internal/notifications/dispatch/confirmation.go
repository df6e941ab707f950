package dispatch

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"photoalbum/internal/metrics"
	"photoalbum/internal/payload"
	"photoalbum/internal/types"
)

// ConfirmationHandler is the entrypoint of the confirmation mailer. It accepts
// either a notification-bus event carrying storage events or a table-stream
// event, so the function can be subscribed to either source.
type ConfirmationHandler struct {
	dispatcher *Dispatcher
	bucket     string
	metrics    metrics.Recorder
	logger     types.Logger
}

// NewConfirmationHandler creates a ConfirmationHandler. bucket is used in the
// quoted location when the event does not name one, which is always the case
// for stream records.
func NewConfirmationHandler(d *Dispatcher, bucket string, rec metrics.Recorder, logger types.Logger) *ConfirmationHandler {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &ConfirmationHandler{dispatcher: d, bucket: bucket, metrics: rec, logger: logger}
}

// Handle never fails the invocation: an unreadable payload cannot succeed on
// redelivery and a failed send is not retried.
func (h *ConfirmationHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	traceID := uuid.New().String()
	ctx = types.WithTraceID(ctx, traceID)
	log := h.logger.With("trace_id", traceID)

	trigger, err := payload.DecodeConfirmationTrigger(raw)
	if err != nil {
		log.Error("dropping unrecognized confirmation trigger", "error", err.Error())
		return nil
	}

	var sent, failed, skipped int
	switch trigger.Kind {
	case payload.TriggerNotification:
		for _, rec := range trigger.Notification.Records {
			s, f, k := h.fromNotification(ctx, log, rec)
			sent, failed, skipped = sent+s, failed+f, skipped+k
		}
	case payload.TriggerStream:
		for _, rec := range trigger.Stream.Records {
			s, f, k := h.fromStream(ctx, log, rec)
			sent, failed, skipped = sent+s, failed+f, skipped+k
		}
	default:
		log.Error("dropping confirmation trigger of unknown kind")
		return nil
	}

	log.Info("confirmation batch complete", "sent", sent, "failed", failed, "skipped", skipped)
	return nil
}

// fromNotification confirms every accepted upload in one bus record.
func (h *ConfirmationHandler) fromNotification(ctx context.Context, log types.Logger, rec events.SNSEventRecord) (sent, failed, skipped int) {
	log = log.With("message_id", rec.SNS.MessageID)
	ctx = types.WithLogger(ctx, log)

	notes, err := payload.DecodeBusMessage(rec.SNS.Message)
	if err != nil {
		log.Error("dropping undecodable notification", "error", err.Error())
		return 0, 1, 0
	}

	for _, note := range notes {
		if note.EventType != types.EventCreated || !types.IsSupportedExtension(types.FileExtension(note.ObjectKey)) {
			skipped++
			h.metrics.RecordEmail(ctx, types.MailConfirmation, metrics.ResultSkipped)
			continue
		}
		bucket := note.Bucket
		if bucket == "" {
			bucket = h.bucket
		}
		if h.dispatcher.Confirm(ctx, ObjectLocation(bucket, note.ObjectKey)) {
			sent++
		} else {
			failed++
		}
	}
	return sent, failed, skipped
}

// fromStream confirms the image inserted by one stream record. Updates and
// deletions are skipped.
func (h *ConfirmationHandler) fromStream(ctx context.Context, log types.Logger, rec events.DynamoDBEventRecord) (sent, failed, skipped int) {
	id, ok, err := payload.DecodeStreamInsert(rec)
	switch {
	case err != nil:
		log.Error("dropping malformed stream record", "event_id", rec.EventID, "error", err.Error())
		return 0, 1, 0
	case !ok:
		return 0, 0, 1
	}
	log = log.With("event_id", rec.EventID, "object_key", id)
	if h.dispatcher.Confirm(types.WithLogger(ctx, log), ObjectLocation(h.bucket, id)) {
		return 1, 0, 0
	}
	return 0, 1, 0
}
