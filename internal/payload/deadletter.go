package payload

import "encoding/json"

// ReasonMaxReceiveCount is reported for messages the queue moved to the
// dead-letter queue after exhausting redelivery. Those carry no Error field.
const ReasonMaxReceiveCount = "Exceeded maximum receive count"

// DeadLetter is a decoded dead-letter queue message.
type DeadLetter struct {
	Reason string

	// ObjectKey is the rejected key when the validator dead-lettered a single
	// notification out of the body. Empty for platform redrives.
	ObjectKey string

	// Body is the original queue body. Its Kind is KindUnrecognized when the
	// forwarded payload could not be decoded; the reason is still valid.
	Body QueueBody
}

// DecodeDeadLetter decodes a dead-letter queue body. Only a body that is not a
// JSON object is an error: a rejection must be reported even when the original
// notification is unreadable.
func DecodeDeadLetter(body string) (DeadLetter, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return DeadLetter{}, unrecognized("dead-letter body is not a JSON object", err)
	}

	dl := DeadLetter{Reason: ReasonMaxReceiveCount}
	if raw, ok := fields[errorField]; ok {
		var reason string
		if err := json.Unmarshal(raw, &reason); err == nil && reason != "" {
			dl.Reason = reason
		}
	}
	if raw, ok := fields[objectKeyField]; ok {
		_ = json.Unmarshal(raw, &dl.ObjectKey)
	}

	qb, err := DecodeQueueBody(body)
	if err != nil {
		dl.Body = QueueBody{Kind: KindUnrecognized, fields: fields}
		return dl, nil
	}
	dl.Body = qb
	return dl, nil
}

// ObjectKeys returns the rejected key when one was recorded, otherwise the
// decoded keys of every notification in the body.
func (d DeadLetter) ObjectKeys() []string {
	if d.ObjectKey != "" {
		return []string{d.ObjectKey}
	}
	keys := make([]string, 0, len(d.Body.Notifications))
	for _, n := range d.Body.Notifications {
		keys = append(keys, n.ObjectKey)
	}
	return keys
}
