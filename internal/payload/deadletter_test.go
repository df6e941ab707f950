package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDeadLetterWithReason(t *testing.T) {
	qb, err := DecodeQueueBody(busEnvelopeJSON(t, storageEventJSON(t, "ObjectCreated:Put", "notes.txt")))
	require.NoError(t, err)
	body, err := qb.WithError("Unsupported file type: txt", "notes.txt")
	require.NoError(t, err)

	dl, err := DecodeDeadLetter(string(body))
	require.NoError(t, err)

	assert.Equal(t, "Unsupported file type: txt", dl.Reason)
	assert.Equal(t, KindBusEnvelope, dl.Body.Kind)
	assert.Equal(t, []string{"notes.txt"}, dl.ObjectKeys())
}

func TestDecodeDeadLetterRedeliveryExhausted(t *testing.T) {
	dl, err := DecodeDeadLetter(busEnvelopeJSON(t, storageEventJSON(t, "ObjectCreated:Put", "birdhouse.jpg")))
	require.NoError(t, err)

	assert.Equal(t, ReasonMaxReceiveCount, dl.Reason)
	assert.Equal(t, []string{"birdhouse.jpg"}, dl.ObjectKeys())
}

func TestDecodeDeadLetterEmptyErrorFallsBack(t *testing.T) {
	dl, err := DecodeDeadLetter(`{"Error": "", "Message": "{\"Records\":[]}"}`)
	require.NoError(t, err)
	assert.Equal(t, ReasonMaxReceiveCount, dl.Reason)
	assert.Empty(t, dl.ObjectKeys())
}

func TestDecodeDeadLetterUndecodablePayload(t *testing.T) {
	dl, err := DecodeDeadLetter(`{"Error": "Unsupported file type: ", "Message": "garbage"}`)
	require.NoError(t, err)

	assert.Equal(t, "Unsupported file type: ", dl.Reason)
	assert.Equal(t, KindUnrecognized, dl.Body.Kind)
	assert.Empty(t, dl.ObjectKeys())
}

func TestDecodeDeadLetterNotJSON(t *testing.T) {
	_, err := DecodeDeadLetter("plain text")
	assert.Error(t, err)
}

func TestDecodeDeadLetterListsOnlyRejectedKey(t *testing.T) {
	qb, err := DecodeQueueBody(busEnvelopeJSON(t, storageEventJSON(t, "ObjectCreated:Put", "birdhouse.jpg", "notes.txt")))
	require.NoError(t, err)
	require.Len(t, qb.Notifications, 2)
	body, err := qb.WithError("Unsupported file type: txt", "notes.txt")
	require.NoError(t, err)

	dl, err := DecodeDeadLetter(string(body))
	require.NoError(t, err)

	assert.Equal(t, "notes.txt", dl.ObjectKey)
	assert.Equal(t, []string{"notes.txt"}, dl.ObjectKeys())
	assert.Len(t, dl.Body.Notifications, 2)
}
