package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeObjectKey(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain", "birdhouse.jpg", "birdhouse.jpg", false},
		{"plus as space", "my+holiday+photo.png", "my holiday photo.png", false},
		{"percent escapes", "albums%2F2023%2Fsea.jpeg", "albums/2023/sea.jpeg", false},
		{"encoded plus stays plus", "a%2Bb.jpg", "a+b.jpg", false},
		{"unicode", "caf%C3%A9.jpg", "café.jpg", false},
		{"malformed escape", "bad%zz+name.jpg", "bad%zz name.jpg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeObjectKey(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"birdhouse.jpg", "jpg"},
		{"archive.tar.gz", "gz"},
		{"albums/2023/sea.jpeg", "jpeg"},
		{"README", ""},
		{"trailing.", ""},
		{"dir.v2/noext", "v2/noext"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, FileExtension(tt.key))
		})
	}
}

func TestIsSupportedExtension(t *testing.T) {
	for _, ext := range []string{"jpeg", "png", "jpg"} {
		assert.True(t, IsSupportedExtension(ext), ext)
	}
	for _, ext := range []string{"JPG", "Png", "jpeg ", "gif", "txt", ""} {
		assert.False(t, IsSupportedExtension(ext), ext)
	}
}

func TestValidateImageKey(t *testing.T) {
	require.NoError(t, ValidateImageKey("birdhouse.jpg"))

	err := ValidateImageKey("notes.txt")
	require.Error(t, err)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrCodeValidationUnsupportedFileType, appErr.Code)
	assert.Equal(t, "Unsupported file type: txt", appErr.Message)
	assert.Equal(t, "txt", appErr.Details["extension"])
}

func TestValidateImageKeyNoExtension(t *testing.T) {
	err := ValidateImageKey("Makefile")

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Unsupported file type: ", appErr.Message)
}
