// Package payload decodes the payload shapes the pipeline workers receive.
//
// Every decoder classifies its input into a closed set of variants and returns
// an Unrecognized variant (or a validation AppError) for anything else; no
// handler reads fields off an untyped payload.
//
// Storage notifications reach the workers in three wrappings:
//
//	queue body = bus envelope {"Message": "<storage event JSON>", ...}
//	queue body = storage event {"Records": [...]}   (raw message delivery)
//	bus record = SNS entity whose Message is the storage event JSON
package payload

import (
	"encoding/json"
	"strings"

	"photoalbum/internal/types"
)

// BodyKind tags the shape of a decoded queue body.
type BodyKind int

const (
	KindUnrecognized BodyKind = iota
	// KindBusEnvelope is a notification-bus envelope with a Message field.
	KindBusEnvelope
	// KindStorageEvent is a storage event delivered without a bus envelope.
	KindStorageEvent
	// KindTestEvent is the storage layer's configuration probe. It carries
	// no object notifications.
	KindTestEvent
)

func (k BodyKind) String() string {
	switch k {
	case KindBusEnvelope:
		return "bus_envelope"
	case KindStorageEvent:
		return "storage_event"
	case KindTestEvent:
		return "test_event"
	default:
		return "unrecognized"
	}
}

const (
	createdPrefix = "ObjectCreated:"
	removedPrefix = "ObjectRemoved:"
	testEventName = "s3:TestEvent"

	// errorField is the envelope field carrying the rejection reason on the
	// dead-letter path.
	errorField = "Error"

	// objectKeyField names the rejected notification's decoded key. A body
	// can carry accepted keys next to the rejected one.
	objectKeyField = "ObjectKey"
)

// QueueBody is a decoded image-queue message body.
type QueueBody struct {
	Kind BodyKind

	// Notifications holds the recognized object events in arrival order.
	Notifications []types.UploadNotification

	// Skipped lists event names of records that were neither created nor
	// removed events.
	Skipped []string

	// fields preserves the original top-level JSON so that the body can be
	// forwarded verbatim with an added Error field.
	fields map[string]json.RawMessage
}

// WithError returns the original body with the Error field set to reason and,
// when objectKey is not empty, the ObjectKey field set to the rejected key.
// Existing fields, including a previous Error, are otherwise kept as received.
func (b QueueBody) WithError(reason, objectKey string) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(b.fields)+2)
	for k, v := range b.fields {
		out[k] = v
	}
	encoded, err := json.Marshal(reason)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalEncoding, "encode error reason", err)
	}
	out[errorField] = encoded
	if objectKey != "" {
		key, err := json.Marshal(objectKey)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalEncoding, "encode rejected object key", err)
		}
		out[objectKeyField] = key
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalEncoding, "encode dead-letter body", err)
	}
	return data, nil
}

// storageEvent is the storage notification document. Records are decoded
// with local types rather than events.S3EventRecord because the library's
// object decoder rejects the whole document on one malformed key escape.
type storageEvent struct {
	Event   string          `json:"Event"`
	Records []storageRecord `json:"Records"`
}

type storageRecord struct {
	EventName string `json:"eventName"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
}

// DecodeQueueBody decodes one image-queue message body.
func DecodeQueueBody(body string) (QueueBody, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return QueueBody{}, unrecognized("queue body is not a JSON object", err)
	}

	qb := QueueBody{fields: fields}

	if raw, ok := fields["Message"]; ok {
		var message string
		if err := json.Unmarshal(raw, &message); err != nil {
			return QueueBody{}, unrecognized("bus envelope Message is not a string", err)
		}
		kind, notes, skipped, err := decodeStorageEvent([]byte(message))
		if err != nil {
			return QueueBody{}, err
		}
		qb.Kind = KindBusEnvelope
		if kind == KindTestEvent {
			qb.Kind = KindTestEvent
		}
		qb.Notifications, qb.Skipped = notes, skipped
		return qb, nil
	}

	kind, notes, skipped, err := decodeStorageEvent([]byte(body))
	if err != nil {
		return QueueBody{}, err
	}
	qb.Kind = kind
	qb.Notifications, qb.Skipped = notes, skipped
	return qb, nil
}

// DecodeBusMessage decodes the Message of a notification-bus record that
// carries a storage event. Test events yield no notifications.
func DecodeBusMessage(message string) ([]types.UploadNotification, error) {
	_, notes, _, err := decodeStorageEvent([]byte(message))
	return notes, err
}

func decodeStorageEvent(data []byte) (BodyKind, []types.UploadNotification, []string, error) {
	var ev storageEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return KindUnrecognized, nil, nil, unrecognized("storage event is not valid JSON", err)
	}

	switch {
	case ev.Event == testEventName:
		return KindTestEvent, nil, nil, nil
	case ev.Records == nil:
		return KindUnrecognized, nil, nil, unrecognized("storage event has no Records", nil)
	}

	notes := make([]types.UploadNotification, 0, len(ev.Records))
	var skipped []string
	for _, rec := range ev.Records {
		eventType, ok := classifyEventName(rec.EventName)
		if !ok {
			skipped = append(skipped, rec.EventName)
			continue
		}
		key, keyErr := types.DecodeObjectKey(rec.S3.Object.Key)
		notes = append(notes, types.UploadNotification{
			Bucket:    rec.S3.Bucket.Name,
			ObjectKey: key,
			EventType: eventType,
			EventName: rec.EventName,
			KeyErr:    keyErr,
		})
	}
	return KindStorageEvent, notes, skipped, nil
}

// classifyEventName maps "ObjectCreated:Put" style names, with or without the
// "s3:" prefix used in bucket configuration, to an EventType.
func classifyEventName(name string) (types.EventType, bool) {
	name = strings.TrimPrefix(name, "s3:")
	switch {
	case strings.HasPrefix(name, createdPrefix):
		return types.EventCreated, true
	case strings.HasPrefix(name, removedPrefix):
		return types.EventRemoved, true
	default:
		return "", false
	}
}

func unrecognized(msg string, err error) *types.AppError {
	return types.NewAppError(types.ErrCodeValidationUnrecognizedPayload, msg, err)
}
