// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name>, is constructed in
// cmd/web with its dependencies, and is added to a Registry.  The server
// mounts every component’s Routes() under “/api/<name>”.  Components may
// optionally implement Closer so the registry can release their resources
// on shutdown.

package component

import (
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Closer is optional.  If a Component implements it, Registry.Close calls
// Close once during shutdown.
type Closer interface {
	Close() error
}

// Component contract.
//
// Routes() returns the component’s endpoints relative to “/api/<name>”, e.g.
// for the “forms” component:
//
//	r := chi.NewRouter()
//	r.Get("/{kind}", h.snapshot)
//	r.Post("/{kind}/submit", h.submit)
//	return r
type Component interface {
	Name() string
	Routes() chi.Router
}

// Registry holds the components for one server.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Component
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: map[string]Component{}}
}

// Register adds c, replacing any earlier component with the same name.
func (r *Registry) Register(c Component) {
	r.mu.Lock()
	r.items[c.Name()] = c
	r.mu.Unlock()
}

// All returns every registered component sorted by name.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Component, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Mount attaches every component’s routes to router at “/<name>”.
func (r *Registry) Mount(router chi.Router) {
	for _, c := range r.All() {
		router.Mount("/"+c.Name(), c.Routes())
	}
}

// Close releases every component implementing Closer and returns the first
// error.
func (r *Registry) Close() error {
	var first error
	for _, c := range r.All() {
		if cl, ok := c.(Closer); ok {
			if err := cl.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
