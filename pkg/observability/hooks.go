// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about page loading, layout passes, cache operations, and
// provider API calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLoaderHooks(&myLoaderHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Loader().OnFetchStart(ctx, gallery, collection, page)
//	// ... fetch the page ...
//	observability.Loader().OnFetchComplete(ctx, gallery, collection, page, n, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Loader Hooks
// =============================================================================

// LoaderHooks receives events from gallery load controllers.
type LoaderHooks interface {
	// Fetch events, one pair per page request
	OnFetchStart(ctx context.Context, gallery, collection string, page int)
	OnFetchComplete(ctx context.Context, gallery, collection string, page, items int, duration time.Duration, err error)

	// OnMerge records new items merged into a gallery.
	OnMerge(ctx context.Context, gallery string, added, total int)

	// OnBackoff records a scheduled retry.
	OnBackoff(ctx context.Context, gallery string, failCount int, delay time.Duration)

	// OnStateChange records a controller state transition.
	OnStateChange(ctx context.Context, gallery, from, to string)
}

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from layout passes.
type LayoutHooks interface {
	OnLayout(ctx context.Context, items, rows int, width float64, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLoaderHooks is a no-op implementation of LoaderHooks.
type NoopLoaderHooks struct{}

func (NoopLoaderHooks) OnFetchStart(context.Context, string, string, int) {}
func (NoopLoaderHooks) OnFetchComplete(context.Context, string, string, int, int, time.Duration, error) {
}
func (NoopLoaderHooks) OnMerge(context.Context, string, int, int)             {}
func (NoopLoaderHooks) OnBackoff(context.Context, string, int, time.Duration) {}
func (NoopLoaderHooks) OnStateChange(context.Context, string, string, string) {}

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayout(context.Context, int, int, float64, time.Duration) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	loaderHooks LoaderHooks = NoopLoaderHooks{}
	layoutHooks LayoutHooks = NoopLayoutHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
	hooksMu     sync.RWMutex
)

// SetLoaderHooks registers custom loader hooks.
// This should be called once at application startup before any galleries load.
func SetLoaderHooks(h LoaderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		loaderHooks = h
	}
}

// SetLayoutHooks registers custom layout hooks.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Loader returns the registered loader hooks.
func Loader() LoaderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return loaderHooks
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	loaderHooks = NoopLoaderHooks{}
	layoutHooks = NoopLayoutHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
