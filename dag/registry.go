package dag

import (
	"sort"
	"sync"
)

// Registry maps component names to computations so graphs can be declared
// by name, see Resolve.
type Registry struct {
	mu         sync.RWMutex
	components map[string]Compute
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{components: make(map[string]Compute)}
}

// Register adds a computation under name. Registering a name twice fails.
func (r *Registry) Register(name string, c Compute) error {
	if name == "" {
		return errInvalidNode(name, "component", "component name must not be empty")
	}
	if c.IsZero() {
		return errInvalidNode(name, "component", "component has no computation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.components[name]; exists {
		return errDuplicateComponent(name)
	}
	r.components[name] = c
	return nil
}

// MustRegister is Register that panics on error, for static wiring.
func (r *Registry) MustRegister(name string, c Compute) {
	if err := r.Register(name, c); err != nil {
		panic(err)
	}
}

// Get retrieves a computation by name.
func (r *Registry) Get(name string) (Compute, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[name]
	return c, ok
}

// List returns sorted names of all registered components.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
