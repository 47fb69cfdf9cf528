package ai

import (
	"sort"
	"sync"

	"ossy/pkg/errors"
)

// ProviderRegistry stores all available AI providers.
type ProviderRegistry struct {
	providers map[string]ChatProvider
	mu        sync.RWMutex
}

// NewProviderRegistry creates an empty registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ChatProvider),
	}
}

// Register adds a provider to the registry.
func (r *ProviderRegistry) Register(provider ChatProvider) error {
	if provider == nil {
		return errors.Wrap(errors.ErrInvalidInput, "provider is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if _, exists := r.providers[name]; exists {
		return errors.Wrapf(errors.ErrInvalidInput, "provider %s already registered", name)
	}

	r.providers[name] = provider
	return nil
}

// Get returns the provider by name.
func (r *ProviderRegistry) Get(name string) (ChatProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[NormalizeProviderName(name)]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "provider %s", name)
	}

	return provider, nil
}

// Preferred returns the named provider, or the first registered one in
// AllProviderNames order when that provider has no key configured.
func (r *ProviderRegistry) Preferred(name string) (ChatProvider, error) {
	if provider, err := r.Get(name); err == nil {
		return provider, nil
	}

	for _, candidate := range AllProviderNames() {
		if provider, err := r.Get(candidate.String()); err == nil {
			return provider, nil
		}
	}

	return nil, errors.Wrap(errors.ErrUnavailable, "no AI provider registered")
}

// Names returns the registered provider names in sorted order.
func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
