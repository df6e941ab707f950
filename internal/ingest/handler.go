// Package ingest implements the image-logger worker: the ingestion validator
// and the removal handler. Both consume the image queue, so one handler routes
// each decoded notification by its event type.
//
// Outcomes per notification:
//
//	Created, extension jpeg|png|jpg -> Put ImageRecord{imageId: key}
//	Created, any other extension    -> forward body + Error to the dead-letter queue
//	Removed                          -> Delete ImageRecord (absent key is success)
//
// Store and queue failures are logged and the batch continues; the queue's own
// redelivery governs retry. Only a cancelled context fails the invocation.
package ingest

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"photoalbum/internal/metrics"
	"photoalbum/internal/payload"
	"photoalbum/internal/types"
)

// ImageStore is the metadata table as seen by this worker.
type ImageStore interface {
	Put(ctx context.Context, rec types.ImageRecord) error
	Delete(ctx context.Context, imageID string) error
}

// DeadLetterSender forwards an annotated queue body to the dead-letter queue.
type DeadLetterSender interface {
	Forward(ctx context.Context, body []byte, reason string) error
}

// ObjectProbe checks that an uploaded object still exists.
type ObjectProbe interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// Options holds the optional collaborators of Handler.
type Options struct {
	// Probe enables the existence check before inserting. Nil disables it.
	Probe ObjectProbe
	// Concurrency bounds how many distinct keys are processed at once.
	// Values below 2 process the batch strictly in arrival order.
	Concurrency int
	Metrics     metrics.Recorder
	// Now is the clock used for queue lag. Defaults to time.Now.
	Now func() time.Time
}

// Handler is the Lambda entrypoint of the image-logger worker.
type Handler struct {
	store       ImageStore
	dlq         DeadLetterSender
	probe       ObjectProbe
	metrics     metrics.Recorder
	logger      types.Logger
	concurrency int
	now         func() time.Time
}

// NewHandler wires a Handler.
func NewHandler(store ImageStore, dlq DeadLetterSender, logger types.Logger, opts Options) *Handler {
	h := &Handler{
		store:       store,
		dlq:         dlq,
		probe:       opts.Probe,
		metrics:     opts.Metrics,
		logger:      logger,
		concurrency: opts.Concurrency,
		now:         opts.Now,
	}
	if h.metrics == nil {
		h.metrics = metrics.Noop{}
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.concurrency < 1 {
		h.concurrency = 1
	}
	return h
}

// workItem is one notification together with the queue body it came from.
type workItem struct {
	messageID string
	body      payload.QueueBody
	note      types.UploadNotification
}

// tally counts outcomes across concurrently processed keys.
type tally struct {
	accepted, rejected, removed, skipped, failed atomic.Int64
}

// Handle processes one queue batch.
func (h *Handler) Handle(ctx context.Context, ev events.SQSEvent) error {
	traceID := uuid.New().String()
	ctx = types.WithTraceID(ctx, traceID)
	log := h.logger.With("trace_id", traceID)

	log.Info("processing image batch", "record_count", len(ev.Records), "concurrency", h.concurrency)

	items := h.collect(ctx, log, ev.Records)

	var t tally
	var err error
	if h.concurrency == 1 {
		err = h.runSequential(ctx, log, items, &t)
	} else {
		err = h.runByKey(ctx, log, items, &t)
	}

	log.Info("image batch complete",
		"notifications", len(items),
		"accepted", t.accepted.Load(),
		"rejected", t.rejected.Load(),
		"removed", t.removed.Load(),
		"skipped", t.skipped.Load(),
		"failed", t.failed.Load(),
	)

	if err != nil {
		log.Error("image batch interrupted", "error", err.Error())
		return err
	}
	return nil
}

// collect decodes every record. Undecodable records are logged and
// acknowledged: redelivering them cannot succeed.
func (h *Handler) collect(ctx context.Context, log types.Logger, records []events.SQSMessage) []workItem {
	var items []workItem
	for _, rec := range records {
		h.recordLag(ctx, rec)
		recLog := log.With("message_id", rec.MessageId)

		body, err := payload.DecodeQueueBody(rec.Body)
		if err != nil {
			recLog.Error("dropping undecodable image queue message",
				"error", err.Error(),
				"body", rec.Body,
			)
			continue
		}
		if len(body.Skipped) > 0 {
			recLog.Warn("ignoring unsupported storage events", "event_names", body.Skipped)
		}
		if body.Kind == payload.KindTestEvent {
			recLog.Info("ignoring storage test event")
			continue
		}

		for _, note := range body.Notifications {
			items = append(items, workItem{messageID: rec.MessageId, body: body, note: note})
		}
	}
	return items
}

func (h *Handler) runSequential(ctx context.Context, log types.Logger, items []workItem, t *tally) error {
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		h.process(ctx, log, it, t)
	}
	return nil
}

// runByKey processes distinct keys concurrently. Notifications for the same
// key stay in arrival order within their group.
func (h *Handler) runByKey(ctx context.Context, log types.Logger, items []workItem, t *tally) error {
	groups := groupByKey(items)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for _, group := range groups {
		g.Go(func() error {
			for _, it := range group {
				if err := gctx.Err(); err != nil {
					return err
				}
				h.process(gctx, log, it, t)
			}
			return nil
		})
	}
	return g.Wait()
}

// groupByKey partitions items by object key, ordering groups by the first
// appearance of their key.
func groupByKey(items []workItem) [][]workItem {
	index := make(map[string]int)
	var groups [][]workItem
	for _, it := range items {
		i, ok := index[it.note.ObjectKey]
		if !ok {
			i = len(groups)
			index[it.note.ObjectKey] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], it)
	}
	return groups
}

func (h *Handler) process(ctx context.Context, log types.Logger, it workItem, t *tally) {
	key := it.note.ObjectKey
	noteLog := log.With(
		"message_id", it.messageID,
		"object_key", key,
		"event_name", it.note.EventName,
	)
	if it.note.KeyErr != nil {
		noteLog.Warn("object key has a malformed escape; using it undecoded", "error", it.note.KeyErr.Error())
	}

	switch it.note.EventType {
	case types.EventCreated:
		h.ingest(ctx, noteLog, it, t)
	case types.EventRemoved:
		h.remove(ctx, noteLog, key, t)
	default:
		noteLog.Warn("ignoring notification with unknown event type", "event_type", string(it.note.EventType))
		t.skipped.Add(1)
	}
}

func (h *Handler) ingest(ctx context.Context, log types.Logger, it workItem, t *tally) {
	key := it.note.ObjectKey

	if err := types.ValidateImageKey(key); err != nil {
		h.reject(ctx, log, it, err, t)
		return
	}

	if h.probe != nil {
		exists, err := h.probe.Exists(ctx, key)
		switch {
		case err != nil:
			// The check only narrows a race; an S3 failure must not lose the record.
			log.Warn("object existence check failed; inserting anyway", "error", err.Error())
		case !exists:
			log.Info("object no longer exists; skipping insert")
			t.skipped.Add(1)
			return
		}
	}

	if err := h.store.Put(ctx, types.ImageRecord{ImageID: key}); err != nil {
		log.Error("failed to record image", "error", err.Error(), "retryable", types.IsRetryable(err))
		h.metrics.RecordStoreFailure(ctx, "PutItem")
		t.failed.Add(1)
		return
	}

	log.Info("image recorded", "extension", types.FileExtension(key))
	h.metrics.RecordImage(ctx, types.MetricImagesAccepted)
	t.accepted.Add(1)
}

func (h *Handler) reject(ctx context.Context, log types.Logger, it workItem, validationErr error, t *tally) {
	reason := validationErr.Error()
	var appErr *types.AppError
	if errors.As(validationErr, &appErr) {
		reason = appErr.Message
	}
	log = log.With("reason", reason)

	body, err := it.body.WithError(reason, it.note.ObjectKey)
	if err != nil {
		log.Error("failed to build dead-letter message", "error", err.Error())
		t.failed.Add(1)
		return
	}
	if err := h.dlq.Forward(ctx, body, reason); err != nil {
		log.Error("failed to forward rejected image to dead-letter queue", "error", err.Error(), "retryable", types.IsRetryable(err))
		t.failed.Add(1)
		return
	}

	log.Info("image rejected")
	h.metrics.RecordImage(ctx, types.MetricImagesRejected)
	t.rejected.Add(1)
}

func (h *Handler) remove(ctx context.Context, log types.Logger, key string, t *tally) {
	if err := h.store.Delete(ctx, key); err != nil {
		log.Error("failed to remove image record", "error", err.Error(), "retryable", types.IsRetryable(err))
		h.metrics.RecordStoreFailure(ctx, "DeleteItem")
		t.failed.Add(1)
		return
	}

	log.Info("image record removed")
	h.metrics.RecordImage(ctx, types.MetricImagesRemoved)
	t.removed.Add(1)
}

// recordLag reports the time since the queue accepted the message, from the
// SentTimestamp system attribute (epoch milliseconds).
func (h *Handler) recordLag(ctx context.Context, rec events.SQSMessage) {
	raw, ok := rec.Attributes["SentTimestamp"]
	if !ok {
		return
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return
	}
	lag := h.now().Sub(time.UnixMilli(ms))
	if lag < 0 {
		lag = 0
	}
	h.metrics.RecordQueueLag(ctx, lag)
}
