package errors

import (
	"strings"
	"testing"
)

func TestValidateCollectionID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"numeric", "72157624618609984", false},
		{"slug", "summer-2024", false},
		{"with slash", "user/album", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 257), true},
		{"traversal", "../secrets", true},
		{"double slash", "a//b", true},
		{"backslash", `a\b`, true},
		{"control char", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCollectionID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCollectionID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateCollectionID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateGalleryID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "3f1c2a9e-5b7d-4c1e-9a0f-2b6d8e4c7a10", false},
		{"simple", "home_gallery.1", false},

		{"empty", "", true},
		{"leading dash", "-abc", true},
		{"slash", "a/b", true},
		{"space", "a b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGalleryID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGalleryID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://example.com/path", false},
		{"http", "http://example.com/path", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"file", "file:///etc/passwd", true},
		{"javascript", "javascript:alert(1)", true},
		{"no scheme", "example.com", true},
		{"no host", "https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidConfig,
		ErrCodeInvalidURL,
		ErrCodeNotFound,
		ErrCodeCollectionNotFound,
		ErrCodeGalleryNotFound,
		ErrCodeNetwork,
		ErrCodeServer,
		ErrCodeTimeout,
		ErrCodeRateLimited,
		ErrCodeMalformed,
		ErrCodeUnauthorized,
		ErrCodeForbidden,
		ErrCodeSessionExpired,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
