package payload

import (
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"

	"photoalbum/internal/types"
)

const (
	streamInsert     = "INSERT"
	imageIDAttribute = "imageId"

	sourceSNS      = "aws:sns"
	sourceDynamoDB = "aws:dynamodb"
)

// DecodeStreamInsert returns the image id of a table-stream INSERT record.
// ok is false for MODIFY and REMOVE records, which are not errors.
func DecodeStreamInsert(rec events.DynamoDBEventRecord) (imageID string, ok bool, err error) {
	if rec.EventName != streamInsert {
		return "", false, nil
	}
	av, found := rec.Change.NewImage[imageIDAttribute]
	if !found || av.DataType() != events.DataTypeString {
		return "", false, types.NewAppErrorWithDetails(types.ErrCodeValidationMissingField,
			"stream INSERT record has no string imageId", nil,
			map[string]any{"event_id": rec.EventID})
	}
	id := av.String()
	if id == "" {
		return "", false, types.NewAppErrorWithDetails(types.ErrCodeValidationMissingField,
			"stream INSERT record has an empty imageId", nil,
			map[string]any{"event_id": rec.EventID})
	}
	return id, true, nil
}

// TriggerKind tags the event source of a confirmation-mailer invocation.
type TriggerKind int

const (
	TriggerUnrecognized TriggerKind = iota
	TriggerNotification
	TriggerStream
)

// ConfirmationTrigger is the decoded input of the confirmation mailer, which
// can be subscribed to the notification bus or attached to the table stream.
type ConfirmationTrigger struct {
	Kind         TriggerKind
	Notification events.SNSEvent
	Stream       events.DynamoDBEvent
}

// sourceProbe reads the event source of the first record. Bus records spell
// the field EventSource and stream records eventSource; encoding/json matches
// both case-insensitively.
type sourceProbe struct {
	Records []struct {
		EventSource string `json:"eventSource"`
	} `json:"Records"`
}

// DecodeConfirmationTrigger classifies a raw invocation payload.
func DecodeConfirmationTrigger(raw json.RawMessage) (ConfirmationTrigger, error) {
	var probe sourceProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ConfirmationTrigger{}, unrecognized("invocation payload is not valid JSON", err)
	}
	if len(probe.Records) == 0 {
		return ConfirmationTrigger{}, unrecognized("invocation payload has no Records", nil)
	}

	switch probe.Records[0].EventSource {
	case sourceSNS:
		var ev events.SNSEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return ConfirmationTrigger{}, unrecognized("decode notification event", err)
		}
		return ConfirmationTrigger{Kind: TriggerNotification, Notification: ev}, nil
	case sourceDynamoDB:
		var ev events.DynamoDBEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return ConfirmationTrigger{}, unrecognized("decode stream event", err)
		}
		return ConfirmationTrigger{Kind: TriggerStream, Stream: ev}, nil
	default:
		return ConfirmationTrigger{}, types.NewAppErrorWithDetails(types.ErrCodeValidationUnrecognizedPayload,
			"unsupported event source", nil, map[string]any{"event_source": probe.Records[0].EventSource})
	}
}
