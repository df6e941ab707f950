package payload

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoalbum/internal/types"
)

// storageEventJSON builds a storage event with one record per key.
func storageEventJSON(t *testing.T, eventName string, keys ...string) string {
	t.Helper()
	records := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		records = append(records, map[string]any{
			"eventSource": "aws:s3",
			"eventName":   eventName,
			"s3": map[string]any{
				"bucket": map[string]any{"name": "image-upload-bucket"},
				"object": map[string]any{"key": k, "size": 1024},
			},
		})
	}
	data, err := json.Marshal(map[string]any{"Records": records})
	require.NoError(t, err)
	return string(data)
}

func busEnvelopeJSON(t *testing.T, message string) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"Type":      "Notification",
		"MessageId": "8f0c3a5e-0000-4000-8000-000000000001",
		"TopicArn":  "arn:aws:sns:eu-west-1:123456789012:ImageUploadTopic",
		"Message":   message,
	})
	require.NoError(t, err)
	return string(data)
}

func TestDecodeQueueBodyBusEnvelope(t *testing.T) {
	body := busEnvelopeJSON(t, storageEventJSON(t, "ObjectCreated:Put", "birdhouse.jpg", "albums/2023/sunset+at+sea.png"))

	qb, err := DecodeQueueBody(body)
	require.NoError(t, err)

	assert.Equal(t, KindBusEnvelope, qb.Kind)
	require.Len(t, qb.Notifications, 2)
	assert.Equal(t, types.UploadNotification{
		Bucket:    "image-upload-bucket",
		ObjectKey: "birdhouse.jpg",
		EventType: types.EventCreated,
		EventName: "ObjectCreated:Put",
	}, qb.Notifications[0])
	assert.Equal(t, "albums/2023/sunset at sea.png", qb.Notifications[1].ObjectKey)
	assert.Empty(t, qb.Skipped)
}

func TestDecodeQueueBodyRawStorageEvent(t *testing.T) {
	qb, err := DecodeQueueBody(storageEventJSON(t, "ObjectRemoved:Delete", "birdhouse.jpg"))
	require.NoError(t, err)

	assert.Equal(t, KindStorageEvent, qb.Kind)
	require.Len(t, qb.Notifications, 1)
	assert.Equal(t, types.EventRemoved, qb.Notifications[0].EventType)
}

func TestDecodeQueueBodyTestEvent(t *testing.T) {
	probe := `{"Service":"Amazon S3","Event":"s3:TestEvent","Bucket":"image-upload-bucket"}`

	for name, body := range map[string]string{
		"raw":     probe,
		"wrapped": busEnvelopeJSON(t, probe),
	} {
		t.Run(name, func(t *testing.T) {
			qb, err := DecodeQueueBody(body)
			require.NoError(t, err)
			assert.Equal(t, KindTestEvent, qb.Kind)
			assert.Empty(t, qb.Notifications)
		})
	}
}

func TestDecodeQueueBodyEventNames(t *testing.T) {
	tests := []struct {
		eventName string
		want      types.EventType
		skipped   bool
	}{
		{"ObjectCreated:Put", types.EventCreated, false},
		{"ObjectCreated:CompleteMultipartUpload", types.EventCreated, false},
		{"s3:ObjectCreated:Copy", types.EventCreated, false},
		{"ObjectRemoved:Delete", types.EventRemoved, false},
		{"ObjectRemoved:DeleteMarkerCreated", types.EventRemoved, false},
		{"ObjectRestore:Completed", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.eventName, func(t *testing.T) {
			qb, err := DecodeQueueBody(storageEventJSON(t, tt.eventName, "a.jpg"))
			require.NoError(t, err)
			if tt.skipped {
				assert.Empty(t, qb.Notifications)
				assert.Equal(t, []string{tt.eventName}, qb.Skipped)
				return
			}
			require.Len(t, qb.Notifications, 1)
			assert.Equal(t, tt.want, qb.Notifications[0].EventType)
		})
	}
}

func TestDecodeQueueBodyKeyDecoding(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"birdhouse.jpg", "birdhouse.jpg", false},
		{"my+holiday+photo.jpeg", "my holiday photo.jpeg", false},
		{"caf%C3%A9.png", "café.png", false},
		{"100%25+real.jpg", "100% real.jpg", false},
		{"broken%zz+name.jpg", "broken%zz name.jpg", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			qb, err := DecodeQueueBody(storageEventJSON(t, "ObjectCreated:Put", tt.raw))
			require.NoError(t, err, "a malformed key must not fail the whole body")
			require.Len(t, qb.Notifications, 1)
			assert.Equal(t, tt.want, qb.Notifications[0].ObjectKey)
			if tt.wantErr {
				assert.Error(t, qb.Notifications[0].KeyErr)
			} else {
				assert.NoError(t, qb.Notifications[0].KeyErr)
			}
		})
	}
}

func TestDecodeQueueBodyUnrecognized(t *testing.T) {
	tests := map[string]string{
		"not json":           "not json",
		"json array":         `[1,2,3]`,
		"message not string": `{"Message": {"Records": []}}`,
		"message not json":   `{"Message": "hello"}`,
		"no records":         `{"Message": "{\"foo\": 1}"}`,
		"empty object":       `{}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeQueueBody(body)
			require.Error(t, err)
			var appErr *types.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, types.ErrCodeValidationUnrecognizedPayload, appErr.Code)
			assert.False(t, appErr.Retryable())
		})
	}
}

func TestQueueBodyWithErrorPreservesEnvelope(t *testing.T) {
	message := storageEventJSON(t, "ObjectCreated:Put", "notes.txt")
	body := busEnvelopeJSON(t, message)

	qb, err := DecodeQueueBody(body)
	require.NoError(t, err)

	out, err := qb.WithError("Unsupported file type: txt", "notes.txt")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "Unsupported file type: txt", got["Error"])
	assert.Equal(t, "notes.txt", got["ObjectKey"])
	assert.Equal(t, message, got["Message"])
	assert.Equal(t, "Notification", got["Type"])
	assert.Equal(t, "arn:aws:sns:eu-west-1:123456789012:ImageUploadTopic", got["TopicArn"])

	// The forwarded body decodes to the same notification.
	again, err := DecodeQueueBody(string(out))
	require.NoError(t, err)
	assert.Equal(t, qb.Notifications, again.Notifications)
}

func TestQueueBodyWithErrorDoesNotMutateOriginal(t *testing.T) {
	qb, err := DecodeQueueBody(busEnvelopeJSON(t, storageEventJSON(t, "ObjectCreated:Put", "a.gif")))
	require.NoError(t, err)

	_, err = qb.WithError("first", "")
	require.NoError(t, err)
	_, hasError := qb.fields[errorField]
	assert.False(t, hasError)
	_, hasKey := qb.fields[objectKeyField]
	assert.False(t, hasKey)
}

func TestDecodeBusMessage(t *testing.T) {
	notes, err := DecodeBusMessage(storageEventJSON(t, "ObjectCreated:Put", "birdhouse.jpg"))
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "birdhouse.jpg", notes[0].ObjectKey)

	notes, err = DecodeBusMessage(`{"Event":"s3:TestEvent"}`)
	require.NoError(t, err)
	assert.Empty(t, notes)

	_, err = DecodeBusMessage(`{"id":"birdhouse.jpg","value":"2023-05-01"}`)
	assert.Error(t, err)
}

func TestBodyKindString(t *testing.T) {
	assert.Equal(t, "bus_envelope", KindBusEnvelope.String())
	assert.Equal(t, "storage_event", KindStorageEvent.String())
	assert.Equal(t, "test_event", KindTestEvent.String())
	assert.Equal(t, "unrecognized", KindUnrecognized.String())
}
