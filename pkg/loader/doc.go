// Package loader progressively loads the pages of a gallery's remote
// collections.
//
// # Overview
//
// A [Controller] owns the load state of one gallery. Each call to
// [Controller.LoadNextPages] runs one round: the next page of every
// collection set that still has more is fetched through a [PageProvider],
// one set after another, and the new items are merged into the gallery.
//
//	ctrl, err := loader.New(loader.Options{
//	    ID:          "home",
//	    Collections: []string{"album-1", "album-2"},
//	    Provider:    provider,
//	    MaxItems:    200,
//	})
//	ctrl.LoadNextPages(ctx)
//	rows := ctrl.Layout(1024, layout.DefaultConfig(), layout.Viewport{Height: 800})
//
// Sets are fetched sequentially so that the global item cap is enforced
// exactly: every request sees the count of items already loaded.
//
// # States
//
//	Idle -> Loading -> Idle | Backoff | Exhausted | Fatal
//
// Backoff returns to Loading when its retry timer fires. Exhausted and
// Fatal only end with [Controller.Reset].
//
// # Failures
//
// Provider errors are mapped by [Classify]. Transient failures are retried
// after min(MaxDelay, max(Backoff(failCount), suggested delay)).
// Authorization failures stop the gallery and ask the viewer to refresh.
// Other errors stop the failing set only.
//
// # Scrolling
//
// After every merge the controller arms its proximity trigger on the new
// last item. The render layer reports positions through
// [Controller.Observe] or [Controller.ObserveLayout], and the next round
// starts once that item comes within the trigger margin.
//
// # Lifetime
//
// A [Registry] holds the controllers of the galleries on display.
// [Registry.Detach] destroys a controller: its in-flight fetch is
// cancelled, its timers are stopped and late responses are dropped.
package loader
