package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/matzehuels/justgrid/pkg/buildinfo"
	"github.com/matzehuels/justgrid/pkg/cache"
	"github.com/matzehuels/justgrid/pkg/errors"
	"github.com/matzehuels/justgrid/pkg/observability"
)

// Client provides shared HTTP functionality for the photo providers.
// It handles caching, retry logic, status mapping and common request
// headers.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	prefix  string
	ttl     time.Duration
	headers map[string]string
	retry   cache.RetryPolicy
}

// NewClient creates a Client with the given cache and default headers.
// Cache keys are stored under prefix and expire after ttl.
// Headers are applied to all requests made through this client.
// Pass nil for headers if no default headers are needed.
func NewClient(c cache.Cache, prefix string, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:    NewHTTPClient(),
		cache:   c,
		prefix:  prefix,
		ttl:     ttl,
		headers: headers,
		retry:   cache.DefaultRetryPolicy,
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(h *http.Client) {
	if h != nil {
		c.http = h
	}
}

// SetRetryPolicy replaces the retry policy used by [Client.Cached].
func (c *Client) SetRetryPolicy(p cache.RetryPolicy) { c.retry = p }

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
// Entries that no longer decode into v are treated as misses.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	hooks := observability.Cache()
	key = c.prefix + key
	if !refresh {
		if data, ok, _ := c.cache.Get(ctx, key); ok && json.Unmarshal(data, v) == nil {
			hooks.OnCacheHit(ctx, c.prefix)
			return nil
		}
		hooks.OnCacheMiss(ctx, c.prefix)
	}
	if err := c.retry.Do(ctx, fetch); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		if c.cache.Set(ctx, key, data, c.ttl) == nil {
			hooks.OnCacheSet(ctx, c.prefix, len(data))
		}
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
// A body that does not decode is reported as [errors.ErrCodeMalformed].
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.doRequest(ctx, url, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeMalformed, err, "decode response from %s", redact(url))
	}
	return nil
}

// GetBytes performs an HTTP GET and returns at most limit bytes of the
// body. A limit <= 0 reads the whole body.
func (c *Client) GetBytes(ctx context.Context, url string, headers map[string]string, limit int64) ([]byte, error) {
	body, err := c.doRequest(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	var r io.Reader = body
	if limit > 0 {
		r = io.LimitReader(body, limit)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, fmt.Errorf("%w: %v", ErrNetwork, err), "read body"))
	}
	return data, nil
}

func (c *Client) doRequest(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidURL, err, "build request")
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, fmt.Errorf("%w: %v", ErrNetwork, err), "GET %s", host))
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, resp.Header); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// checkStatus maps an HTTP status to the error taxonomy the loader
// classifies. Server errors are wrapped as retryable.
func checkStatus(code int, header http.Header) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return &errors.RateLimitedError{RetryAfter: parseRetryAfter(header.Get("Retry-After"), time.Now())}
	case code == http.StatusUnauthorized:
		return errors.New(errors.ErrCodeUnauthorized, "status %d", code)
	case code == http.StatusForbidden:
		return errors.New(errors.ErrCodeForbidden, "status %d", code)
	case code == http.StatusNotFound:
		return errors.Wrap(errors.ErrCodeNotFound, ErrNotFound, "status %d", code)
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return cache.Retryable(errors.Wrap(errors.ErrCodeTimeout, ErrNetwork, "status %d", code))
	case code >= 500:
		return cache.Retryable(errors.Wrap(errors.ErrCodeServer, ErrNetwork, "status %d", code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

// maxRetryAfter bounds a server's suggested delay. The loader applies its
// own, lower ceiling on top.
const maxRetryAfter = time.Hour

// parseRetryAfter reads a Retry-After header given in seconds or as an
// HTTP date, clamped to [0, maxRetryAfter]. It returns zero when the header
// is absent or unparsable.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
		// ParseInt saturates to the int64 bounds.
		err = nil
	}
	if err == nil {
		if secs > int64(maxRetryAfter/time.Second) {
			return maxRetryAfter
		}
		return time.Duration(max(secs, 0)) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return min(max(t.Sub(now), 0), maxRetryAfter)
	}
	return 0
}

// redact drops the query string, which may carry tokens.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.String()
}
