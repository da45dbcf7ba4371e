package loader

import (
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/matzehuels/justgrid/pkg/errors"
)

// Registry owns the controllers of the galleries currently on display,
// keyed by gallery id. Detaching a gallery destroys its controller.
//
// A Registry is safe for concurrent use. There is no package-level
// registry; each host creates and closes its own.
type Registry struct {
	mu          sync.Mutex
	controllers map[string]*Controller
	closed      bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{controllers: make(map[string]*Controller)}
}

// Attach creates a controller for the gallery opts.ID.
func (r *Registry) Attach(opts Options) (*Controller, error) {
	if err := errors.ValidateGalleryID(opts.ID); err != nil {
		return nil, err
	}
	c, err := New(opts)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		c.Destroy()
		return nil, errors.New(errors.ErrCodeInternal, "registry closed")
	}
	if _, ok := r.controllers[opts.ID]; ok {
		c.Destroy()
		return nil, errors.New(errors.ErrCodeInvalidInput, "gallery %s already attached", opts.ID)
	}
	r.controllers[opts.ID] = c
	return c, nil
}

// Get returns the controller of a gallery.
func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[id]
	return c, ok
}

// Detach removes a gallery and destroys its controller.
func (r *Registry) Detach(id string) error {
	r.mu.Lock()
	c, ok := r.controllers[id]
	delete(r.controllers, id)
	r.mu.Unlock()
	if !ok {
		return errors.New(errors.ErrCodeGalleryNotFound, "gallery %s not found", id)
	}
	return c.Destroy()
}

// IDs returns the attached gallery ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.controllers))
	for id := range r.controllers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of attached galleries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// Close destroys every controller. Attach fails afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	controllers := r.controllers
	r.controllers = make(map[string]*Controller)
	r.closed = true
	r.mu.Unlock()

	var err error
	for _, c := range controllers {
		err = multierr.Append(err, c.Destroy())
	}
	return err
}
