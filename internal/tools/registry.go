package tools

import (
	"sort"
	"sync"

	"ossy/pkg/errors"
)

// Definition is the model-facing description of a registered tool
type Definition struct {
	Name        string
	Description string
	Parameters  Schema
}

// Registry stores tools by name for discovery and lookup.
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewRegistry constructs a registry holding the given tools.
func NewRegistry(ts ...Tool) *Registry {
	r := &Registry{
		tools: make(map[string]Tool),
	}
	for _, t := range ts {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool under its own name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get retrieves a tool by name if registered.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Lookup retrieves a tool or returns ErrNotFound
func (r *Registry) Lookup(name string) (Tool, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "tool %q", name)
	}
	return t, nil
}

// List returns the names of all registered tools in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Definitions describes every registered tool, sorted by name.
func (r *Registry) Definitions() []Definition {
	names := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		defs = append(defs, Definition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}
