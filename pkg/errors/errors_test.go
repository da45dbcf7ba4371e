package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/matzehuels/justgrid/pkg/errors"
	"github.com/matzehuels/justgrid/pkg/integrations"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"bare", errors.New(errors.ErrCodeCollectionNotFound, "collection %q not found", "summer"),
			`COLLECTION_NOT_FOUND: collection "summer" not found`},
		{"with cause", errors.Wrap(errors.ErrCodeMalformed, stderrors.New("unexpected EOF"), "page %d", 3),
			"MALFORMED_RESPONSE: page 3: unexpected EOF"},
		{"rate limited", &errors.RateLimitedError{RetryAfter: 90 * time.Second}, "rate limited: retry after 1m30s"},
		{"rate limited without delay", &errors.RateLimitedError{}, "rate limited"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsTransportSentinel(t *testing.T) {
	err := errors.Wrap(errors.ErrCodeNetwork, fmt.Errorf("%w: connection reset", integrations.ErrNetwork), "GET %s", "api.example.com")

	if !stderrors.Is(err, integrations.ErrNetwork) {
		t.Error("wrapped error lost integrations.ErrNetwork")
	}
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("GetCode() = %v, want %v", errors.GetCode(err), errors.ErrCodeNetwork)
	}
	if got := errors.UserMessage(err); got != "GET api.example.com" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestIsThroughWrapping(t *testing.T) {
	missing := errors.New(errors.ErrCodeCollectionNotFound, "collection %q not found", "winter")
	tests := []struct {
		name string
		err  error
		code errors.Code
		want bool
	}{
		{"direct", missing, errors.ErrCodeCollectionNotFound, true},
		{"one fmt layer", fmt.Errorf("page 1: %w", missing), errors.ErrCodeCollectionNotFound, true},
		{"two fmt layers", fmt.Errorf("gallery trip: %w", fmt.Errorf("page 1: %w", missing)), errors.ErrCodeCollectionNotFound, true},
		{"different code", fmt.Errorf("page 1: %w", missing), errors.ErrCodeGalleryNotFound, false},
		{"outer code wins over inner", errors.Wrap(errors.ErrCodeInternal, missing, "restore"), errors.ErrCodeCollectionNotFound, false},
		{"plain error", stderrors.New("collection not found"), errors.ErrCodeCollectionNotFound, false},
		{"nil", nil, errors.ErrCodeCollectionNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestGetCodePrefersRateLimit(t *testing.T) {
	limited := &errors.RateLimitedError{RetryAfter: 5 * time.Second}
	tests := []struct {
		name string
		err  error
		want errors.Code
	}{
		{"bare", limited, errors.ErrCodeRateLimited},
		{"inside server error", errors.Wrap(errors.ErrCodeServer, limited, "page 2"), errors.ErrCodeRateLimited},
		{"inside fmt and coded layers", fmt.Errorf("gallery: %w", errors.Wrap(errors.ErrCodeNetwork, limited, "GET")), errors.ErrCodeRateLimited},
		{"coded without rate limit", errors.New(errors.ErrCodeForbidden, "private album"), errors.ErrCodeForbidden},
		{"uncoded", stderrors.New("boom"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
	if limited.Code() != errors.ErrCodeRateLimited {
		t.Errorf("RateLimitedError.Code() = %v", limited.Code())
	}
}

func TestUserMessageForAuthFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"session expired", errors.New(errors.ErrCodeSessionExpired, "session expired, refresh the page"), "session expired, refresh the page"},
		{"wrapped session expired", fmt.Errorf("page 4: %w", errors.New(errors.ErrCodeSessionExpired, "sign in again")), "sign in again"},
		{"unauthorized with cause", errors.Wrap(errors.ErrCodeUnauthorized, stderrors.New("status 401"), "token rejected"), "token rejected"},
		{"plain", stderrors.New("status 401"), "status 401"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetCodeRateLimited(t *testing.T) {
	err := fmt.Errorf("fetch page 3: %w", &errors.RateLimitedError{RetryAfter: time.Second})
	if got := errors.GetCode(err); got != errors.ErrCodeRateLimited {
		t.Errorf("GetCode() = %v, want %v", got, errors.ErrCodeRateLimited)
	}
	if !errors.Is(err, errors.ErrCodeRateLimited) {
		t.Error("Is(err, ErrCodeRateLimited) = false, want true")
	}
}

func TestIsEmptyCode(t *testing.T) {
	if errors.Is(stderrors.New("plain"), "") {
		t.Error("Is() with empty code should be false")
	}
}
