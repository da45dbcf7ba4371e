// Package cache stores provider responses between requests.
//
// # Backends
//
//   - [FileCache]: JSON entries under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: caching disabled
//
// All backends implement [Cache] and store opaque bytes with a TTL.
//
// # Keys
//
// A [Keyer] builds the cache keys, so that one backend can be shared by
// several providers without collisions:
//
//	k := cache.NewDefaultKeyer()
//	key := k.PageKey("album", "summer-2024", cache.PageKeyOpts{Page: 2, SortOrder: "most-viewed"})
//
// [ScopedKeyer] adds a prefix, for example per API token.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Default TTLs.
const (
	// TTLPage is how long a collection page stays fresh.
	TTLPage = time.Hour
	// TTLProbe is how long probed image dimensions are kept.
	TTLProbe = 7 * 24 * time.Hour
)

// Cache is a byte store with expiring entries.
type Cache interface {
	// Get returns the value for key. ok is false on a miss or an expired entry.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// PageKeyOpts holds the request parameters that change a page's content.
type PageKeyOpts struct {
	Page      int    `json:"page"`
	SortOrder string `json:"sort_order,omitempty"`
	PageSize  int    `json:"page_size,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// HTTPKey names a raw HTTP response.
	HTTPKey(namespace, key string) string
	// PageKey names one page of a provider's collection.
	PageKey(provider, collection string, opts PageKeyOpts) string
	// ProbeKey names the probed dimensions of an image URL.
	ProbeKey(url string) string
}

// DefaultKeyer generates unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("http:%s:%s", namespace, key)
}

// PageKey hashes the collection and options so that any collection id is
// safe to use in a key.
func (DefaultKeyer) PageKey(provider, collection string, opts PageKeyOpts) string {
	return hashKey("page:"+provider, collection, opts)
}

// ProbeKey hashes the URL.
func (DefaultKeyer) ProbeKey(url string) string {
	return hashKey("probe", url)
}
