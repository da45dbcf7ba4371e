package urls

import (
	"context"
	"io"
	"net/url"
	"path"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/justgrid/pkg/errors"
	"github.com/matzehuels/justgrid/pkg/gallery"
	"github.com/matzehuels/justgrid/pkg/loader"
)

// Options configure a [Provider].
type Options struct {
	// Prober resolves dimensions; nil leaves them unknown, so the layout
	// uses the fallback aspect ratio.
	Prober *Prober
	Logger *log.Logger
}

// Provider serves fixed lists of image URLs as single-page collections.
//
// It is safe for concurrent use.
type Provider struct {
	prober *Prober
	logger *log.Logger

	mu          sync.RWMutex
	collections map[string][]string
}

// New creates an empty provider.
func New(opts Options) *Provider {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Provider{
		prober:      opts.Prober,
		logger:      opts.Logger,
		collections: make(map[string][]string),
	}
}

// Add registers a collection. Every URL must be an http(s) URL; an
// existing collection with the same id is replaced.
func (p *Provider) Add(collectionID string, urls []string) error {
	if err := errors.ValidateCollectionID(collectionID); err != nil {
		return err
	}
	for _, u := range urls {
		if err := errors.ValidateURL(u); err != nil {
			return err
		}
	}
	p.mu.Lock()
	p.collections[collectionID] = append([]string(nil), urls...)
	p.mu.Unlock()
	return nil
}

// Remove drops a collection. Removing an unknown id does nothing.
func (p *Provider) Remove(collectionID string) {
	p.mu.Lock()
	delete(p.collections, collectionID)
	p.mu.Unlock()
}

// FetchPage returns every URL of the collection as page 1. Later pages are
// empty and no page ever has more. Images that fail to probe are kept with
// unknown dimensions.
func (p *Provider) FetchPage(ctx context.Context, req loader.PageRequest) (loader.Page, error) {
	p.mu.RLock()
	list, ok := p.collections[req.CollectionID]
	p.mu.RUnlock()
	if !ok {
		return loader.Page{}, errors.New(errors.ErrCodeCollectionNotFound, "collection %q not found", req.CollectionID)
	}
	if req.Page != 1 {
		return loader.Page{Page: req.Page, TotalPages: 1}, nil
	}

	items := make([]gallery.Item, len(list))
	for i, u := range list {
		items[i] = gallery.Item{ImageURL: u, Title: titleFromURL(u)}
	}

	if p.prober != nil {
		for i, r := range p.prober.ProbeAll(ctx, list) {
			if r.Err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return loader.Page{}, ctxErr
				}
				p.logger.Warn("probe failed", "url", r.URL, "err", r.Err)
				continue
			}
			items[i].Width, items[i].Height = r.Dims.Width, r.Dims.Height
		}
	}
	return loader.Page{Items: items, Page: 1, TotalPages: 1}, nil
}

func titleFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || u.Path == "/" {
		return ""
	}
	return path.Base(u.Path)
}

var _ loader.PageProvider = (*Provider)(nil)
