package integrations

import (
	"errors"
	"net/http"
	"time"
)

const httpTimeout = 15 * time.Second

var (
	// ErrNotFound is returned when a collection or image doesn't exist.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with a standard timeout for provider requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// BearerHeaders returns the Authorization header for token, or nil when
// token is empty.
func BearerHeaders(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}
