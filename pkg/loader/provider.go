package loader

import (
	"context"

	"github.com/matzehuels/justgrid/pkg/gallery"
)

// SortOrder selects how merged items are ordered.
type SortOrder string

const (
	// SortDefault appends new items in arrival order.
	SortDefault SortOrder = "default"
	// SortMostViewed keeps the gallery ordered by popularity, highest first.
	SortMostViewed SortOrder = "most-viewed"
)

// Valid reports whether s is a known sort order. The empty order is valid
// and means SortDefault.
func (s SortOrder) Valid() bool {
	switch s {
	case "", SortDefault, SortMostViewed:
		return true
	}
	return false
}

// PageRequest asks a provider for one page of a collection.
type PageRequest struct {
	CollectionID  string    `json:"collection_id"`
	Page          int       `json:"page"` // 1-based
	SortOrder     SortOrder `json:"sort_order,omitempty"`
	MaxItems      int       `json:"max_items,omitempty"` // global cap, 0 for none
	AlreadyLoaded int       `json:"already_loaded"`
}

// Page is a successful provider response.
type Page struct {
	Items      []gallery.Item `json:"items"`
	HasMore    bool           `json:"has_more"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages,omitempty"`
}

// PageProvider fetches pages of remote collections.
//
// Failures are reported as errors; [Classify] decides how the controller
// reacts. Providers should return errors from
// github.com/matzehuels/justgrid/pkg/errors so that rate limits, expired
// sessions and malformed payloads are told apart.
type PageProvider interface {
	FetchPage(ctx context.Context, req PageRequest) (Page, error)
}

// ProviderFunc adapts a function to a PageProvider.
type ProviderFunc func(ctx context.Context, req PageRequest) (Page, error)

// FetchPage calls f.
func (f ProviderFunc) FetchPage(ctx context.Context, req PageRequest) (Page, error) {
	return f(ctx, req)
}
