package codec

import (
	"sort"
	"sync"
)

// registry implements Registry interface
type registry struct {
	mu          sync.RWMutex
	layouts     map[string]Layout
	defaultName string
}

// NewRegistry creates a layout registry holding the built-in layouts
func NewRegistry() Registry {
	r := &registry{
		layouts: make(map[string]Layout),
	}

	for _, l := range BuiltinLayouts() {
		r.Register(l)
	}
	r.defaultName = Enrichable.Name

	return r
}

// Register registers a layout under its name
func (r *registry) Register(layout Layout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layouts[layout.Name] = layout
}

// Get retrieves a layout by name
func (r *registry) Get(name string) (Layout, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	layout, exists := r.layouts[name]
	return layout, exists
}

// Names returns the registered layout names in sorted order
func (r *registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the default layout
func (r *registry) Default() Layout {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.layouts[r.defaultName]
}
