// Package dispatch implements the confirmation and rejection mailers. Both
// send to one configured operator address; a failed send is logged and
// counted, never retried and never returned.
package dispatch

import (
	"context"
	"fmt"

	"photoalbum/internal/metrics"
	"photoalbum/internal/notifications/email"
	"photoalbum/internal/types"
)

// Deliverer renders and sends one email. *email.Channel implements it.
type Deliverer interface {
	Deliver(ctx context.Context, msg email.Message) (string, error)
}

var _ Deliverer = (*email.Channel)(nil)

// ObjectLocation formats the s3:// URL quoted in confirmation emails.
func ObjectLocation(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}

// Dispatcher sends the two kinds of pipeline email.
type Dispatcher struct {
	mail    Deliverer
	metrics metrics.Recorder
	logger  types.Logger
}

// NewDispatcher creates a Dispatcher. A nil recorder disables metrics.
func NewDispatcher(mail Deliverer, rec metrics.Recorder, logger types.Logger) *Dispatcher {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Dispatcher{mail: mail, metrics: rec, logger: logger}
}

// Confirm announces an accepted image. It reports whether the send succeeded.
// Sends are logged with the record logger stored in ctx, if any.
func (d *Dispatcher) Confirm(ctx context.Context, location string) bool {
	return d.send(ctx, email.Message{
		Kind:        types.MailConfirmation,
		Location:    location,
		ReferenceID: types.GetTraceID(ctx),
	}, "location", location)
}

// Reject reports a dead-lettered upload with its reason and object keys.
func (d *Dispatcher) Reject(ctx context.Context, reason string, keys []string) bool {
	return d.send(ctx, email.Message{
		Kind:        types.MailRejection,
		Reason:      reason,
		ObjectKeys:  keys,
		ReferenceID: types.GetTraceID(ctx),
	}, "reason", reason, "object_keys", keys)
}

func (d *Dispatcher) send(ctx context.Context, msg email.Message, logArgs ...any) bool {
	log := d.logger
	if l := types.LoggerFromContext(ctx); l != nil {
		log = l
	}
	log = log.With(logArgs...).With("kind", string(msg.Kind))

	if _, err := d.mail.Deliver(ctx, msg); err != nil {
		log.Error("failed to send email", "error", err.Error(), "retryable", types.IsRetryable(err))
		d.metrics.RecordEmail(ctx, msg.Kind, metrics.ResultFailed)
		return false
	}
	d.metrics.RecordEmail(ctx, msg.Kind, metrics.ResultSuccess)
	return true
}
