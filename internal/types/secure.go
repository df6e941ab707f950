package types

const redactedPlaceholder = "***REDACTED***"

var redactedJSON = []byte(`"***REDACTED***"`)

// SecretString holds a value that must not reach logs or config dumps, such
// as the operator address resolved from SSM. fmt and encoding/json print a
// placeholder; Unmask returns the value.
type SecretString string

func (s SecretString) String() string {
	return redactedPlaceholder
}

// GoString covers the %#v verb.
func (s SecretString) GoString() string {
	return redactedPlaceholder
}

func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// Unmask returns the raw value. Call it only where the value is handed to a
// client, e.g. the SES destination.
func (s SecretString) Unmask() string {
	return string(s)
}
