package types

// EventType classifies an object notification from the storage layer.
type EventType string

const (
	EventCreated EventType = "Created"
	EventRemoved EventType = "Removed"
)

// AttributeName identifies the single optional attribute an update event sets.
// Values double as the DynamoDB attribute names written by the update path.
type AttributeName string

const (
	AttributeCaption      AttributeName = "Caption"
	AttributeDate         AttributeName = "Date"
	AttributePhotographer AttributeName = "Photographer"
)

// AttributeNames lists the allow-list in a stable order.
var AttributeNames = []AttributeName{AttributeCaption, AttributeDate, AttributePhotographer}

// ParseAttributeName classifies a raw attribute name. The match is exact and
// case-sensitive: "caption" is rejected.
func ParseAttributeName(raw string) (AttributeName, error) {
	if raw == "" {
		return "", NewAppError(ErrCodeValidationMissingAttribute, "No metadata", nil)
	}
	switch AttributeName(raw) {
	case AttributeCaption, AttributeDate, AttributePhotographer:
		return AttributeName(raw), nil
	default:
		return "", NewAppErrorWithDetails(ErrCodeValidationInvalidAttribute, "Invalid metadata type", nil,
			map[string]any{"metadata_type": raw})
	}
}

// MailKind distinguishes the two dispatcher paths.
type MailKind string

const (
	MailConfirmation MailKind = "confirmation"
	MailRejection    MailKind = "rejection"
)
