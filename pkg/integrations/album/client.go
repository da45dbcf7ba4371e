package album

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/justgrid/pkg/cache"
	"github.com/matzehuels/justgrid/pkg/errors"
	"github.com/matzehuels/justgrid/pkg/gallery"
	"github.com/matzehuels/justgrid/pkg/integrations"
	"github.com/matzehuels/justgrid/pkg/loader"
)

// DefaultPageSize is the number of photos requested per page.
const DefaultPageSize = 30

// photo is one entry of the API's photo list.
type photo struct {
	ID             string  `json:"id"`
	URL            string  `json:"url"`
	Title          string  `json:"title,omitempty"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	Rotation       int     `json:"rotation,omitempty"`
	AttributionURL string  `json:"attribution_url,omitempty"`
	Views          float64 `json:"views,omitempty"`
}

// pageResponse is the body of GET /collections/{id}/photos.
type pageResponse struct {
	Photos     []photo `json:"photos"`
	Page       int     `json:"page"`
	TotalPages int     `json:"total_pages"`
	HasMore    *bool   `json:"has_more,omitempty"`
}

// Options configure a [Client].
type Options struct {
	// BaseURL is the API root, for example https://photos.example.com/api/v1.
	BaseURL string
	// Token is sent as a bearer token when set.
	Token string
	// PageSize is sent as per_page; 0 means DefaultPageSize.
	PageSize int
	// Cache stores decoded pages; nil disables caching.
	Cache cache.Cache
	// TTL is how long cached pages stay fresh; 0 means cache.TTLPage.
	TTL time.Duration
	// Refresh bypasses cached pages while still writing fresh ones.
	Refresh bool
	Logger  *log.Logger
}

// Client fetches pages of remote photo collections.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL  string
	keyer    cache.Keyer
	pageSize int
	refresh  bool
	logger   *log.Logger
}

// NewClient creates an album API client.
//
// Pages fetched with a token are cached under a key scoped to that token,
// so that two viewers with different access never share pages.
func NewClient(opts Options) (*Client, error) {
	if err := errors.ValidateURL(opts.BaseURL); err != nil {
		return nil, err
	}
	if opts.PageSize < 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "page size must not be negative")
	}
	if opts.PageSize == 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.TTL == 0 {
		opts.TTL = cache.TTLPage
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	keyer := cache.NewDefaultKeyer()
	if opts.Token != "" {
		keyer = cache.NewScopedKeyer(keyer, "token:"+cache.Hash([]byte(opts.Token))[:12]+":")
	}

	return &Client{
		Client:   integrations.NewClient(opts.Cache, "album:", opts.TTL, integrations.BearerHeaders(opts.Token)),
		baseURL:  opts.BaseURL,
		keyer:    keyer,
		pageSize: opts.PageSize,
		refresh:  opts.Refresh,
		logger:   opts.Logger,
	}, nil
}

// FetchPage retrieves one page of a collection.
//
// Photos without a URL are dropped. When the response omits has_more, it is
// derived from page < total_pages.
//
// Returns:
//   - COLLECTION_NOT_FOUND if the collection doesn't exist
//   - UNAUTHORIZED or FORBIDDEN when the token was rejected
//   - [errors.RateLimitedError] when the API throttles the client
//   - MALFORMED_RESPONSE when the body is not a page
func (c *Client) FetchPage(ctx context.Context, req loader.PageRequest) (loader.Page, error) {
	if err := errors.ValidateCollectionID(req.CollectionID); err != nil {
		return loader.Page{}, err
	}
	if req.Page < 1 {
		return loader.Page{}, errors.New(errors.ErrCodeInvalidInput, "page must be >= 1, got %d", req.Page)
	}

	key := c.keyer.PageKey("album", req.CollectionID, cache.PageKeyOpts{
		Page:      req.Page,
		SortOrder: string(req.SortOrder),
		PageSize:  c.pageSize,
	})

	var resp pageResponse
	err := c.Cached(ctx, key, c.refresh, &resp, func() error {
		if err := c.Get(ctx, c.pageURL(req), &resp); err != nil {
			return err
		}
		if resp.Photos == nil {
			return errors.New(errors.ErrCodeMalformed, "page %d of %s has no photo list", req.Page, req.CollectionID)
		}
		return nil
	})
	if errors.Is(err, errors.ErrCodeNotFound) {
		return loader.Page{}, errors.Wrap(errors.ErrCodeCollectionNotFound, err, "collection %q", req.CollectionID)
	}
	if err != nil {
		return loader.Page{}, err
	}

	page := loader.Page{
		Items:      make([]gallery.Item, 0, len(resp.Photos)),
		Page:       req.Page,
		TotalPages: resp.TotalPages,
	}
	for _, p := range resp.Photos {
		if p.URL == "" {
			c.logger.Debug("dropping photo without url", "collection", req.CollectionID, "id", p.ID)
			continue
		}
		page.Items = append(page.Items, p.item())
	}
	if resp.HasMore != nil {
		page.HasMore = *resp.HasMore
	} else {
		page.HasMore = resp.TotalPages > 0 && req.Page < resp.TotalPages
	}

	c.logger.Debug("fetched page", "collection", req.CollectionID, "page", req.Page,
		"items", len(page.Items), "has_more", page.HasMore)
	return page, nil
}

func (c *Client) pageURL(req loader.PageRequest) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("per_page", strconv.Itoa(c.pageSize))
	if req.SortOrder == loader.SortMostViewed {
		q.Set("sort", "views")
	}
	return fmt.Sprintf("%s/collections/%s/photos?%s", c.baseURL, url.PathEscape(req.CollectionID), q.Encode())
}

func (p photo) item() gallery.Item {
	return gallery.Item{
		ID:              p.ID,
		ImageURL:        p.URL,
		Title:           p.Title,
		Width:           p.Width,
		Height:          p.Height,
		RotationDegrees: p.Rotation,
		AttributionURL:  p.AttributionURL,
		SortWeight:      p.Views,
	}
}

var _ loader.PageProvider = (*Client)(nil)
