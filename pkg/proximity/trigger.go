// Package proximity tells a gallery when its last rendered item nears the
// bottom of the viewport.
//
// A [Trigger] is an explicit subscription: it is armed on one target with a
// callback and a margin, fires at most once per arm, and is silenced by
// [Trigger.Disarm]. The render layer reports positions with
// [Trigger.Observe]; the trigger never inspects the page itself.
//
//	t := proximity.New(clock.Real{}, 250*time.Millisecond)
//	t.Arm(lastItem.Key(), func() { ctrl.LoadNextPages(ctx) }, 400)
//	...
//	t.Observe(lastItem.Key(), distanceBelowViewport)
package proximity

import (
	"sync"
	"time"

	"github.com/matzehuels/justgrid/pkg/clock"
)

// DefaultMinInterval is the shortest time between two firings.
const DefaultMinInterval = 250 * time.Millisecond

// Trigger fires a callback when an armed target comes within a margin of
// the viewport. It is safe for concurrent use.
type Trigger struct {
	clock       clock.Clock
	minInterval time.Duration

	mu        sync.Mutex
	target    string
	onNear    func()
	margin    float64
	armed     bool
	notified  bool
	lastFired time.Time
}

// New returns a disarmed trigger. A nil clock uses the wall clock and a
// negative interval disables throttling.
func New(c clock.Clock, minInterval time.Duration) *Trigger {
	if c == nil {
		c = clock.Real{}
	}
	return &Trigger{clock: c, minInterval: max(minInterval, 0)}
}

// Arm subscribes onNear to the target, replacing any previous subscription
// and clearing the notified latch.
func (t *Trigger) Arm(target string, onNear func(), marginPx float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.target = target
	t.onNear = onNear
	t.margin = max(marginPx, 0)
	t.armed = true
	t.notified = false
}

// Disarm drops the subscription. Observations after Disarm never fire.
func (t *Trigger) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = false
	t.onNear = nil
	t.target = ""
}

// Armed reports whether the trigger holds a subscription.
func (t *Trigger) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

// Target returns the armed target, or "" when disarmed.
func (t *Trigger) Target() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.target
}

// Notified reports whether the trigger has fired since it was last armed
// or its latch cleared.
func (t *Trigger) Notified() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.notified
}

// ClearLatch lets a still-armed trigger fire again for the same target.
func (t *Trigger) ClearLatch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notified = false
}

// Observe reports the distance in pixels between the top of target and the
// bottom of the viewport; zero or negative means the target is visible.
// It runs the callback, outside the trigger's lock, when the armed target is
// within the margin, the latch is clear and the minimum interval has passed
// since the last firing. It reports whether the callback ran.
func (t *Trigger) Observe(target string, distancePx float64) bool {
	t.mu.Lock()
	if !t.armed || target != t.target || t.notified || distancePx > t.margin {
		t.mu.Unlock()
		return false
	}
	now := t.clock.Now()
	if !t.lastFired.IsZero() && now.Sub(t.lastFired) < t.minInterval {
		t.mu.Unlock()
		return false
	}
	t.notified = true
	t.lastFired = now
	fn := t.onNear
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
	return true
}
