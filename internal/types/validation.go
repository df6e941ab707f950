package types

import (
	"fmt"
	"net/url"
	"strings"
)

// SupportedExtensions is the allow-list of image file extensions. Matching is
// case-sensitive: "photo.JPG" is rejected.
var SupportedExtensions = []string{"jpeg", "png", "jpg"}

// DecodeObjectKey URL-decodes an object key as delivered in storage
// notifications, where spaces arrive as '+'. A key with a malformed escape is
// returned with only the '+' substitution applied, together with the error.
func DecodeObjectKey(raw string) (string, error) {
	spaced := strings.ReplaceAll(raw, "+", " ")
	decoded, err := url.PathUnescape(spaced)
	if err != nil {
		return spaced, fmt.Errorf("decode object key %q: %w", raw, err)
	}
	return decoded, nil
}

// FileExtension returns the substring after the last '.', or "" when the key
// contains no dot.
func FileExtension(key string) string {
	idx := strings.LastIndexByte(key, '.')
	if idx < 0 {
		return ""
	}
	return key[idx+1:]
}

// IsSupportedExtension reports whether ext is on the image allow-list.
func IsSupportedExtension(ext string) bool {
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// UnsupportedFileTypeReason is the error text attached to rejected messages.
func UnsupportedFileTypeReason(ext string) string {
	return fmt.Sprintf("Unsupported file type: %s", ext)
}

// ValidateImageKey checks a decoded key against the allow-list and returns an
// AppError carrying the rejection reason when it fails.
func ValidateImageKey(key string) error {
	ext := FileExtension(key)
	if IsSupportedExtension(ext) {
		return nil
	}
	return NewAppErrorWithDetails(ErrCodeValidationUnsupportedFileType, UnsupportedFileTypeReason(ext), nil,
		map[string]any{"extension": ext, "object_key": key})
}
