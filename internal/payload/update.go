package payload

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	"photoalbum/internal/types"
)

// metadataTypeAttribute is the bus message attribute naming the field to set.
const metadataTypeAttribute = "metadata_type"

type updateMessage struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// DecodeAttributeUpdate decodes an attribute-update bus record:
//
//	Message:           {"id": "<imageId>", "value": "<value>"}
//	MessageAttributes: {"metadata_type": {"Type": "String", "Value": "Caption"}}
//
// A missing or unknown metadata_type yields a validation AppError from
// types.ParseAttributeName.
func DecodeAttributeUpdate(sns events.SNSEntity) (types.AttributeUpdateEvent, error) {
	var msg updateMessage
	if err := json.Unmarshal([]byte(sns.Message), &msg); err != nil {
		return types.AttributeUpdateEvent{}, unrecognized("attribute update Message is not valid JSON", err)
	}

	name, err := types.ParseAttributeName(messageAttributeValue(sns.MessageAttributes, metadataTypeAttribute))
	if err != nil {
		return types.AttributeUpdateEvent{}, err
	}

	if msg.ID == "" {
		return types.AttributeUpdateEvent{}, types.NewAppErrorWithDetails(types.ErrCodeValidationMissingField,
			"attribute update has no id", nil, map[string]any{"field": "id"})
	}

	return types.AttributeUpdateEvent{
		ImageID: msg.ID,
		Name:    name,
		Value:   msg.Value,
	}, nil
}

// messageAttributeValue extracts the string Value of a bus message attribute.
// The Lambda payload carries attributes as {"Type": ..., "Value": ...} maps.
func messageAttributeValue(attrs map[string]interface{}, name string) string {
	raw, ok := attrs[name]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case map[string]interface{}:
		if s, ok := v["Value"].(string); ok {
			return s
		}
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
