// Package metadata implements the metadata-updater worker, which applies
// single-attribute updates published on the notification bus.
package metadata

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"photoalbum/internal/metrics"
	"photoalbum/internal/payload"
	"photoalbum/internal/types"
)

// AttributeStore sets one attribute on an image record, creating the record
// when it does not exist.
type AttributeStore interface {
	SetAttribute(ctx context.Context, imageID string, name types.AttributeName, value string) error
}

// Updater is the Lambda entrypoint of the metadata-updater worker.
//
// A record with a missing or unknown metadata_type fails the invocation so
// that the bus redelivers it. Records before it in the same event have
// already been applied; updates are idempotent, so reapplying them is safe.
// Store failures are logged and not retried here.
type Updater struct {
	store    AttributeStore
	metrics  metrics.Recorder
	logger   types.Logger
	validate *validator.Validate
}

// NewUpdater wires an Updater. A nil recorder disables metrics.
func NewUpdater(store AttributeStore, recorder metrics.Recorder, logger types.Logger) *Updater {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &Updater{
		store:    store,
		metrics:  recorder,
		logger:   logger,
		validate: validator.New(),
	}
}

// Handle applies every attribute update in the event, in order.
func (u *Updater) Handle(ctx context.Context, ev events.SNSEvent) error {
	traceID := uuid.New().String()
	ctx = types.WithTraceID(ctx, traceID)
	log := u.logger.With("trace_id", traceID)

	for _, rec := range ev.Records {
		recLog := log.With("message_id", rec.SNS.MessageID)

		update, err := payload.DecodeAttributeUpdate(rec.SNS)
		if err != nil {
			recLog.Error("rejecting attribute update", "error", err.Error())
			return err
		}
		if err := u.validate.Struct(update); err != nil {
			recLog.Error("rejecting attribute update", "error", err.Error())
			return types.NewAppError(types.ErrCodeValidationMissingField, "attribute update failed validation", err)
		}

		recLog = recLog.With(
			"object_key", update.ImageID,
			"attribute", string(update.Name),
		)
		if err := u.store.SetAttribute(ctx, update.ImageID, update.Name, update.Value); err != nil {
			recLog.Error("failed to update image attribute", "error", err.Error(), "retryable", types.IsRetryable(err))
			u.metrics.RecordStoreFailure(ctx, "UpdateItem")
			continue
		}

		recLog.Info("image attribute updated")
		u.metrics.RecordMetadataUpdate(ctx, update.Name)
	}
	return nil
}
