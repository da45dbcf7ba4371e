package proximity

import (
	"testing"
	"time"

	"github.com/matzehuels/justgrid/pkg/clock"
)

func newTestTrigger(interval time.Duration) (*Trigger, *clock.Manual) {
	mc := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return New(mc, interval), mc
}

func TestObserveWithinMargin(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		distance float64
		want     bool
	}{
		{"visible", "last", -20, true},
		{"inside margin", "last", 99, true},
		{"on margin", "last", 100, true},
		{"outside margin", "last", 101, false},
		{"other target", "first", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := newTestTrigger(0)
			calls := 0
			tr.Arm("last", func() { calls++ }, 100)

			if got := tr.Observe(tt.target, tt.distance); got != tt.want {
				t.Errorf("Observe() = %v, want %v", got, tt.want)
			}
			if want := map[bool]int{true: 1, false: 0}[tt.want]; calls != want {
				t.Errorf("callback ran %d times, want %d", calls, want)
			}
		})
	}
}

func TestLatch(t *testing.T) {
	tr, _ := newTestTrigger(0)
	calls := 0
	tr.Arm("last", func() { calls++ }, 50)

	for range 5 {
		tr.Observe("last", 0)
	}
	if calls != 1 {
		t.Fatalf("callback ran %d times while latched, want 1", calls)
	}
	if !tr.Notified() {
		t.Error("Notified() = false after firing")
	}

	tr.ClearLatch()
	tr.Observe("last", 0)
	if calls != 2 {
		t.Errorf("callback ran %d times after ClearLatch, want 2", calls)
	}

	tr.Arm("next", func() { calls++ }, 50)
	if tr.Notified() {
		t.Error("Notified() = true after re-arm")
	}
	tr.Observe("next", 0)
	if calls != 3 {
		t.Errorf("callback ran %d times after re-arm, want 3", calls)
	}
}

func TestThrottle(t *testing.T) {
	tr, mc := newTestTrigger(time.Second)
	calls := 0
	tr.Arm("a", func() { calls++ }, 0)
	tr.Observe("a", 0)

	tr.Arm("b", func() { calls++ }, 0)
	if tr.Observe("b", 0) {
		t.Error("Observe() fired inside the minimum interval")
	}
	mc.Advance(time.Second)
	if !tr.Observe("b", 0) {
		t.Error("Observe() did not fire after the minimum interval")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestDisarm(t *testing.T) {
	tr, _ := newTestTrigger(0)
	tr.Arm("last", func() { t.Error("callback ran after Disarm") }, 100)
	tr.Disarm()

	if tr.Observe("last", 0) {
		t.Error("Observe() = true after Disarm")
	}
	if tr.Armed() || tr.Target() != "" {
		t.Errorf("Armed() = %v, Target() = %q after Disarm", tr.Armed(), tr.Target())
	}
}

func TestCallbackMayRearm(t *testing.T) {
	tr, _ := newTestTrigger(0)
	tr.Arm("a", func() {
		tr.Arm("b", func() {}, 10)
	}, 10)

	if !tr.Observe("a", 0) {
		t.Fatal("Observe() = false")
	}
	if got := tr.Target(); got != "b" {
		t.Errorf("Target() = %q, want b", got)
	}
}
