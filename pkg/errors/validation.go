package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const maxIdentifierLength = 256

// ValidateCollectionID validates a remote collection identifier before it
// is interpolated into provider URLs or cache keys.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No path traversal sequences (.., //, backslashes)
//   - Maximum length of 256 characters
func ValidateCollectionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "collection id cannot be empty")
	}
	if len(id) > maxIdentifierLength {
		return New(ErrCodeInvalidInput, "collection id too long (max %d characters)", maxIdentifierLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "collection id contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "//", "\x00", "\\"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "collection id contains invalid characters: %q", pattern)
		}
	}
	return nil
}

var galleryIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateGalleryID validates a gallery identifier used as a registry key
// and as part of snapshot file names.
func ValidateGalleryID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "gallery id cannot be empty")
	}
	if len(id) > maxIdentifierLength {
		return New(ErrCodeInvalidInput, "gallery id too long (max %d characters)", maxIdentifierLength)
	}
	if !galleryIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid gallery id: %q", id)
	}
	return nil
}

// ValidateURL validates an image or API URL.
// It ensures the URL parses, has a host, and uses http or https.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidURL, err, "URL cannot be parsed")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidURL, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidURL, "URL must include a host")
	}
	return nil
}
