package types

// ImageRecord is a single item in the image metadata table. The partition key
// imageId equals the full decoded object key. Optional attributes are set
// independently by the metadata updater and are omitted until then.
type ImageRecord struct {
	ImageID      string `dynamodbav:"imageId" json:"imageId"`
	Caption      string `dynamodbav:"Caption,omitempty" json:"caption,omitempty"`
	Date         string `dynamodbav:"Date,omitempty" json:"date,omitempty"`
	Photographer string `dynamodbav:"Photographer,omitempty" json:"photographer,omitempty"`
}

// Attribute returns the value of the named optional attribute.
func (r ImageRecord) Attribute(name AttributeName) string {
	switch name {
	case AttributeCaption:
		return r.Caption
	case AttributeDate:
		return r.Date
	case AttributePhotographer:
		return r.Photographer
	default:
		return ""
	}
}

// UploadNotification is one object event decoded from a storage notification.
// ObjectKey is already URL-decoded.
type UploadNotification struct {
	Bucket    string
	ObjectKey string
	EventType EventType
	// EventName is the raw storage event name (e.g. "ObjectCreated:Put"), kept for logs.
	EventName string
	// KeyErr is set when the key carried a malformed escape; ObjectKey then
	// holds the raw key with only '+' replaced.
	KeyErr error
}

// AttributeUpdateEvent sets one attribute on one image record.
type AttributeUpdateEvent struct {
	ImageID string        `validate:"required"`
	Name    AttributeName `validate:"required,oneof=Caption Date Photographer"`
	Value   string
}

// SendInput is the pre-rendered email handed to an email provider.
type SendInput struct {
	To          string
	From        SenderIdentity
	Subject     string
	BodyHTML    string
	BodyText    string
	ReferenceID string
}

// SenderIdentity defines the sender for outgoing emails.
type SenderIdentity struct {
	Name    string
	Address string
}
