package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants.
// Handlers MUST use these constants instead of hardcoded strings.
const (
	// Validation: the event itself is wrong and redelivery will not fix it.
	ErrCodeValidationUnsupportedFileType ErrorCode = "validation_unsupported_file_type"
	ErrCodeValidationMissingAttribute    ErrorCode = "validation_missing_attribute_name"
	ErrCodeValidationInvalidAttribute    ErrorCode = "validation_invalid_attribute_name"
	ErrCodeValidationMissingField        ErrorCode = "validation_missing_required_field"
	ErrCodeValidationUnrecognizedPayload ErrorCode = "validation_unrecognized_payload"

	// Not Found
	ErrCodeNotFoundImage  ErrorCode = "not_found_image"
	ErrCodeNotFoundObject ErrorCode = "not_found_object"

	// Internal
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
	ErrCodeInternalEncoding   ErrorCode = "internal_encoding_error"

	// Upstream: managed services the handlers call.
	ErrCodeUpstreamStore         ErrorCode = "upstream_store_unavailable"
	ErrCodeUpstreamQueue         ErrorCode = "upstream_queue_unavailable"
	ErrCodeUpstreamObjectStorage ErrorCode = "upstream_object_storage_unavailable"
	ErrCodeUpstreamEmailProvider ErrorCode = "upstream_email_provider_unavailable"
	ErrCodeUpstreamUnavailable   ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited   ErrorCode = "upstream_rate_limited"

	// Email-specific
	ErrCodeEmailBlocked ErrorCode = "email_blocked"
)

// Retryable reports whether an operation failing with this code could succeed
// on redelivery. Validation and not-found errors are permanent; upstream and
// internal errors are transient.
func (c ErrorCode) Retryable() bool {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return false
	case strings.HasPrefix(s, "not_found_"):
		return false
	case c == ErrCodeEmailBlocked:
		return false
	case c == ErrCodeInternalEncoding:
		return false
	case strings.HasPrefix(s, "upstream_"), strings.HasPrefix(s, "internal_"):
		return true
	default:
		return false
	}
}

// AppError is the standard application error type used throughout the pipeline.
// All domain and handler errors should be expressed as AppError so that logs
// carry a stable code and callers can classify failures with errors.As.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the error is transient.
func (e *AppError) Retryable() bool {
	return e.Code.Retryable()
}

// IsRetryable reports whether err carries an AppError with a transient code.
// Errors outside the taxonomy are treated as transient.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable()
	}
	return err != nil
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error. This is the standard constructor for domain errors.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError with the given code, message,
// underlying error, and structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}
