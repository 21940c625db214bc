package providers

import "slices"

// Registry holds the configured providers. It is built once at startup and
// never mutated afterwards, so lookups need no locking.
type Registry struct {
	byName map[string]Provider
	order  []Provider
}

// NewRegistry builds a registry from the given providers, preserving
// registration order. A provider registered under an already-used name
// replaces the earlier one.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{byName: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		name := p.Name()
		if _, exists := r.byName[name]; exists {
			for i, q := range r.order {
				if q.Name() == name {
					r.order[i] = p
					break
				}
			}
		} else {
			r.order = append(r.order, p)
		}
		r.byName[name] = p
	}
	return r
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// All returns every provider in registration order.
func (r *Registry) All() []Provider {
	return slices.Clone(r.order)
}

// Names returns the provider names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, p := range r.order {
		names[i] = p.Name()
	}
	return names
}
