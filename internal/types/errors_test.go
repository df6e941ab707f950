package types

import (
	"errors"
	"fmt"
	"testing"
)

// TestAppErrorImplementsError verifies that *AppError satisfies the error interface.
func TestAppErrorImplementsError(t *testing.T) {
	var _ error = (*AppError)(nil)
}

// TestAppErrorErrorFormat verifies the Error() method produces "code: message".
func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeValidationUnsupportedFileType,
		Message: "Unsupported file type: txt",
	}

	expected := "validation_unsupported_file_type: Unsupported file type: txt"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

// TestAppErrorUnwrap verifies the error chain support via Unwrap.
func TestAppErrorUnwrap(t *testing.T) {
	underlying := errors.New("connection reset")
	appErr := &AppError{
		Code:    ErrCodeUpstreamStore,
		Message: "failed to put image record",
		Err:     underlying,
	}

	if appErr.Unwrap() != underlying {
		t.Errorf("Unwrap() returned unexpected error: got %v, want %v", appErr.Unwrap(), underlying)
	}
}

func TestAppErrorUnwrapNil(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeNotFoundImage,
		Message: "image not found",
	}

	if appErr.Unwrap() != nil {
		t.Errorf("Unwrap() should return nil when Err is nil, got %v", appErr.Unwrap())
	}
}

// TestAppErrorErrorsAs verifies that errors.As can extract AppError from an error chain.
func TestAppErrorErrorsAs(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeValidationInvalidAttribute,
		Message: "Invalid metadata type",
	}
	wrappedErr := fmt.Errorf("handler failed: %w", appErr)

	var target *AppError
	if !errors.As(wrappedErr, &target) {
		t.Fatal("errors.As should find AppError in the chain")
	}
	if target.Code != ErrCodeValidationInvalidAttribute {
		t.Errorf("extracted Code = %q, want %q", target.Code, ErrCodeValidationInvalidAttribute)
	}
}

func TestAppErrorErrorsIs(t *testing.T) {
	sentinel := errors.New("sentinel")
	appErr := NewAppError(ErrCodeInternalUnexpected, "unexpected failure", sentinel)

	if !errors.Is(appErr, sentinel) {
		t.Error("errors.Is should find sentinel through AppError.Unwrap")
	}
}

func TestErrorCodeRetryable(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want bool
	}{
		{ErrCodeValidationUnsupportedFileType, false},
		{ErrCodeValidationMissingAttribute, false},
		{ErrCodeValidationInvalidAttribute, false},
		{ErrCodeValidationUnrecognizedPayload, false},
		{ErrCodeNotFoundImage, false},
		{ErrCodeEmailBlocked, false},
		{ErrCodeInternalEncoding, false},
		{ErrCodeInternalUnexpected, true},
		{ErrCodeUpstreamStore, true},
		{ErrCodeUpstreamQueue, true},
		{ErrCodeUpstreamEmailProvider, true},
		{ErrCodeUpstreamRateLimited, true},
		{ErrorCode("something_else"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.Retryable(); got != tt.want {
				t.Errorf("%s.Retryable() = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"store outage", NewAppError(ErrCodeUpstreamStore, "DynamoDB PutItem failed", nil), true},
		{"wrapped throttle", fmt.Errorf("put: %w", NewAppError(ErrCodeUpstreamRateLimited, "throttled", nil)), true},
		{"unsupported type", NewAppError(ErrCodeValidationUnsupportedFileType, "Unsupported file type: txt", nil), false},
		{"blocked recipient", NewAppError(ErrCodeEmailBlocked, "rejected", nil), false},
		{"foreign error", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
