package loader

import "time"

// Retry timing defaults.
const (
	DefaultBaseDelay  = time.Second
	DefaultMaxDelay   = 30 * time.Second
	DefaultRetryDelay = 5 * time.Second
	DefaultCooldown   = 500 * time.Millisecond
)

// Backoff returns the exponential delay before retry number failCount
// (1-based): base, 2*base, 4*base, ... capped at ceiling.
func Backoff(failCount int, base, ceiling time.Duration) time.Duration {
	if failCount < 1 || base <= 0 {
		return 0
	}
	d := base
	for i := 1; i < failCount; i++ {
		d *= 2
		if d >= ceiling || d <= 0 {
			return ceiling
		}
	}
	return min(d, ceiling)
}

// retryDelay combines the backoff for failCount with the outcome's
// suggested delay, taking the larger and capping it at maxDelay.
func retryDelay(o Outcome, failCount int, opts Options) time.Duration {
	suggested := o.RetryAfter
	if suggested <= 0 && o.UseDefaultDelay {
		suggested = opts.DefaultRetryDelay
	}
	return min(opts.MaxDelay, max(Backoff(failCount, opts.BaseDelay, opts.MaxDelay), suggested))
}
