package cache

// ScopedKeyer wraps a Keyer with a prefix for isolation, for example to
// keep pages fetched with different access tokens apart.
//
//	tokenKeyer := NewScopedKeyer(NewDefaultKeyer(), "token:"+Hash([]byte(token))[:12]+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// PageKey generates a prefixed key for a collection page.
func (k *ScopedKeyer) PageKey(provider, collection string, opts PageKeyOpts) string {
	return k.prefix + k.inner.PageKey(provider, collection, opts)
}

// ProbeKey generates a prefixed key for probed image dimensions.
func (k *ScopedKeyer) ProbeKey(url string) string {
	return k.prefix + k.inner.ProbeKey(url)
}
