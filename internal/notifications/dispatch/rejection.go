package dispatch

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"photoalbum/internal/payload"
	"photoalbum/internal/types"
)

// RejectionHandler is the entrypoint of the rejection mailer, triggered by the
// dead-letter queue. Every record produces one email.
type RejectionHandler struct {
	dispatcher *Dispatcher
	logger     types.Logger
}

// NewRejectionHandler creates a RejectionHandler.
func NewRejectionHandler(d *Dispatcher, logger types.Logger) *RejectionHandler {
	return &RejectionHandler{dispatcher: d, logger: logger}
}

// Handle reports each dead-lettered record. Failed sends are logged and the
// batch is acknowledged.
func (h *RejectionHandler) Handle(ctx context.Context, ev events.SQSEvent) error {
	traceID := uuid.New().String()
	ctx = types.WithTraceID(ctx, traceID)
	log := h.logger.With("trace_id", traceID)

	var sent, failed int
	for _, rec := range ev.Records {
		recLog := log.With("message_id", rec.MessageId)

		reason, keys := payload.ReasonMaxReceiveCount, []string(nil)
		dl, err := payload.DecodeDeadLetter(rec.Body)
		if err != nil {
			recLog.Warn("dead-letter body is unreadable; reporting without object keys",
				"error", err.Error(),
				"body", rec.Body,
			)
		} else {
			reason, keys = dl.Reason, dl.ObjectKeys()
			if dl.Body.Kind == payload.KindUnrecognized {
				recLog.Warn("dead-lettered notification is unreadable", "reason", reason)
			}
		}

		if h.dispatcher.Reject(types.WithLogger(ctx, recLog), reason, keys) {
			sent++
		} else {
			failed++
		}
	}

	log.Info("rejection batch complete", "records", len(ev.Records), "sent", sent, "failed", failed)
	return nil
}
