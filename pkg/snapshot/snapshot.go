// Package snapshot persists gallery progress so that a gallery can be
// reopened without refetching the pages it already loaded.
//
// A [Snapshot] holds a gallery's items and the progress of each collection
// set. Backends implement [Store]:
//
//   - [FileStore]: one JSON file per gallery, for the CLI
//   - [MongoStore]: one document per gallery, for the HTTP server
//
// Typical use:
//
//	snap := snapshot.Take(ctrl, loader.SortDefault)
//	if err := store.Save(ctx, snap); err != nil {
//	    return err
//	}
//
//	// later, with a fresh controller for the same collections
//	snap, err := store.Get(ctx, "summer")
//	if err == nil && snap != nil {
//	    err = snap.Apply(ctrl)
//	}
package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/justgrid/pkg/gallery"
	"github.com/matzehuels/justgrid/pkg/loader"
)

// ErrNotFound is returned by Delete when no snapshot exists.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the saved progress of one gallery.
type Snapshot struct {
	GalleryID string                 `json:"gallery_id" bson:"_id"`
	SortOrder loader.SortOrder       `json:"sort_order,omitempty" bson:"sort_order,omitempty"`
	Sets      []loader.CollectionSet `json:"sets" bson:"sets"`
	Items     []gallery.Item         `json:"items" bson:"items"`
	SavedAt   time.Time              `json:"saved_at" bson:"saved_at"`
}

// Take captures the controller's current items and set progress.
func Take(c *loader.Controller, order loader.SortOrder) *Snapshot {
	items, sets := c.Progress()
	return &Snapshot{
		GalleryID: c.ID(),
		SortOrder: order,
		Sets:      sets,
		Items:     items,
		SavedAt:   time.Now().UTC(),
	}
}

// Apply seeds an idle, empty controller with the snapshot.
func (s *Snapshot) Apply(c *loader.Controller) error {
	return c.Restore(s.Items, s.Sets)
}

// Collections returns the collection ids in set order.
func (s *Snapshot) Collections() []string {
	ids := make([]string, len(s.Sets))
	for i, set := range s.Sets {
		ids[i] = set.CollectionID
	}
	return ids
}

// Store is the interface for snapshot backends.
type Store interface {
	// Get returns nil, nil when the gallery has no snapshot.
	Get(ctx context.Context, galleryID string) (*Snapshot, error)
	// Save replaces any previous snapshot of the same gallery.
	Save(ctx context.Context, snap *Snapshot) error
	Delete(ctx context.Context, galleryID string) error
	// List returns the ids of all saved galleries, sorted.
	List(ctx context.Context) ([]string, error)
	Close() error
}
