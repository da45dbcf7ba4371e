// Package integrations provides HTTP page providers for photo galleries.
//
// # Overview
//
// Each provider implements [loader.PageProvider] and lives in its own
// subpackage:
//
//   - [album]: a remote photo collection API returning paged JSON
//   - [urls]: a fixed list of image URLs, served as a single page
//
// # Shared Client
//
// [Client] is the shared HTTP layer. It applies default headers, maps
// response statuses to coded errors from pkg/errors, and caches decoded
// responses through a [cache.Cache]:
//
//	c := integrations.NewClient(fc, "album:", cache.TTLPage, integrations.BearerHeaders(token))
//	err := c.Cached(ctx, key, false, &page, func() error {
//	    return c.Get(ctx, url, &page)
//	})
//
// Status mapping:
//
//	429      -> errors.RateLimitedError (Retry-After honoured)
//	401, 403 -> UNAUTHORIZED, FORBIDDEN
//	404      -> NOT_FOUND (wraps ErrNotFound)
//	408, 504 -> TIMEOUT (retryable)
//	5xx      -> SERVER_ERROR (retryable)
//
// Undecodable bodies become MALFORMED_RESPONSE. Transport failures become
// NETWORK_ERROR, except when the request context was cancelled, in which
// case the context error is returned unchanged.
//
// [loader.PageProvider]: github.com/matzehuels/justgrid/pkg/loader.PageProvider
// [album]: github.com/matzehuels/justgrid/pkg/integrations/album
// [urls]: github.com/matzehuels/justgrid/pkg/integrations/urls
// [cache.Cache]: github.com/matzehuels/justgrid/pkg/cache.Cache
package integrations
