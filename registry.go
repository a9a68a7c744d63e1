package globe

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// SceneGraph receives built primitive trees. Attach is called once per
// handle; Detach when the handle is removed.
type SceneGraph interface {
	Attach(id string, p Primitive) error
	Detach(id string) error
}

// Handle is a registered geometry.
type Handle struct {
	ID    string
	Kind  Kind
	Root  Primitive
	Style StyleOptions
	// Anchor is the geographic point a label is attached to: the point
	// itself, the mean of a multi-point, the middle line sample or the
	// polygon centroid.
	Anchor orb.Point
	// Length is the great-circle length of line geometries on the globe
	// radius, zero for other kinds.
	Length float64
}

// Registry tracks every built handle by id and the leaf meshes available
// for hit-testing. It is safe for concurrent use.
type Registry struct {
	scene SceneGraph
	newID func() (string, error)

	mu        sync.RWMutex
	handles   map[string]*Handle
	order     []string
	pickables []*Mesh
}

func newRegistry(scene SceneGraph, newID func() (string, error)) *Registry {
	if newID == nil {
		newID = newUUID
	}
	return &Registry{
		scene:   scene,
		newID:   newID,
		handles: make(map[string]*Handle),
	}
}

func newUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// add assigns h an id, attaches it to the scene and records its meshes.
func (r *Registry) add(h *Handle) error {
	id, err := r.newID()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHandle, err)
	}
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidHandle)
	}

	r.mu.Lock()
	if _, dup := r.handles[id]; dup {
		r.mu.Unlock()
		return fmt.Errorf("%w: duplicate id %q", ErrInvalidHandle, id)
	}
	h.ID = id
	r.handles[id] = h
	r.order = append(r.order, id)
	r.pickables = append(r.pickables, Meshes(h.Root)...)
	r.mu.Unlock()

	if r.scene != nil {
		if err := r.scene.Attach(id, h.Root); err != nil {
			r.drop(id)
			return fmt.Errorf("globe: attach %s: %w", id, err)
		}
	}
	return nil
}

// Get returns the handle registered under id.
func (r *Registry) Get(id string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	return h, ok
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Handles returns the registered handles in registration order.
func (r *Registry) Handles() []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Handle, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.handles[id])
	}
	return out
}

// Pickables returns every leaf mesh of every registered handle.
func (r *Registry) Pickables() []*Mesh {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Mesh(nil), r.pickables...)
}

// Remove detaches id from the scene and unregisters it. If the scene
// refuses to detach, the handle stays registered.
func (r *Registry) Remove(id string) error {
	if _, ok := r.Get(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownHandle, id)
	}
	if r.scene != nil {
		if err := r.scene.Detach(id); err != nil {
			return fmt.Errorf("globe: detach %s: %w", id, err)
		}
	}
	if !r.drop(id) {
		return fmt.Errorf("%w: %q", ErrUnknownHandle, id)
	}
	Logger().Info("globe: handle removed", "id", id)
	return nil
}

func (r *Registry) drop(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[id]
	if !ok {
		return false
	}
	delete(r.handles, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	owned := make(map[*Mesh]struct{})
	for _, m := range Meshes(h.Root) {
		owned[m] = struct{}{}
	}
	kept := r.pickables[:0]
	for _, m := range r.pickables {
		if _, ok := owned[m]; !ok {
			kept = append(kept, m)
		}
	}
	clear(r.pickables[len(kept):])
	r.pickables = kept
	return true
}
