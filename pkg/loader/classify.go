package loader

import (
	"context"
	stderrors "errors"
	"net"
	"time"

	"github.com/matzehuels/justgrid/pkg/errors"
)

// OutcomeKind is the controller's reaction to a failed page fetch.
type OutcomeKind int

const (
	// Recoverable failures are retried after a delay, unless NoRetry is set.
	Recoverable OutcomeKind = iota + 1
	// SetFatal failures stop the failing collection set; siblings continue.
	SetFatal
	// Ignored failures are intentional cancellations.
	Ignored
)

func (k OutcomeKind) String() string {
	switch k {
	case Recoverable:
		return "recoverable"
	case SetFatal:
		return "fatal"
	case Ignored:
		return "ignored"
	}
	return "unknown"
}

// Outcome is the classification of a fetch error.
type Outcome struct {
	Kind OutcomeKind
	// RetryAfter is the provider-suggested delay, zero when none was given.
	RetryAfter time.Duration
	// UseDefaultDelay asks for at least the configured default retry delay
	// when the provider gave no suggestion.
	UseDefaultDelay bool
	// NoRetry stops the whole gallery: the failure cannot heal by itself.
	NoRetry bool
	// Message is shown to the viewer.
	Message string
}

// Messages shown in the status indicator.
const (
	msgRateLimited = "The photo service is busy. Retrying shortly."
	msgTransient   = "Could not load more photos. Retrying."
	msgMalformed   = "Received an unexpected response. Retrying."
	msgSession     = "Your session has expired. Please refresh the page to load more photos."
	msgSetFailed   = "Some photos could not be loaded."
)

// Classify maps a provider error to the controller's reaction.
//
//   - rate limits retry after the suggested delay, else the default delay
//   - network failures, timeouts and 5xx responses retry with backoff
//   - authorization failures stop the gallery without retrying
//   - malformed payloads retry after the default delay
//   - context.Canceled is ignored
//   - anything else stops the failing collection set
func Classify(err error) Outcome {
	if err == nil {
		return Outcome{}
	}
	if stderrors.Is(err, context.Canceled) {
		return Outcome{Kind: Ignored}
	}

	var rl *errors.RateLimitedError
	if stderrors.As(err, &rl) {
		return Outcome{Kind: Recoverable, RetryAfter: rl.RetryAfter, UseDefaultDelay: true, Message: msgRateLimited}
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeRateLimited:
		return Outcome{Kind: Recoverable, UseDefaultDelay: true, Message: msgRateLimited}
	case errors.ErrCodeNetwork, errors.ErrCodeServer, errors.ErrCodeTimeout:
		return Outcome{Kind: Recoverable, Message: msgTransient}
	case errors.ErrCodeUnauthorized, errors.ErrCodeForbidden, errors.ErrCodeSessionExpired:
		return Outcome{Kind: Recoverable, NoRetry: true, Message: msgSession}
	case errors.ErrCodeMalformed:
		return Outcome{Kind: Recoverable, UseDefaultDelay: true, Message: msgMalformed}
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return Outcome{Kind: Recoverable, Message: msgTransient}
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return Outcome{Kind: Recoverable, Message: msgTransient}
	}
	return Outcome{Kind: SetFatal, Message: msgSetFailed}
}
