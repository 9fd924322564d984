package provider

import "fmt"

// Registry is the process-wide set of known provider types, keyed by
// nickname and ordered by registration. It is populated once at startup
// and read-only afterwards; it is passed explicitly into the routing
// and dispatch layers so tests can supply fakes.
type Registry struct {
	order     []string
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a provider type under its nickname. Registration order
// defines the default candidate order when no routing policy applies.
func (r *Registry) Register(nickname string, factory Factory) error {
	if nickname == "" {
		return fmt.Errorf("%w: nickname must be set", ErrInvalidProvider)
	}
	if factory == nil {
		return fmt.Errorf("%w: %s: factory must be set", ErrInvalidProvider, nickname)
	}
	if _, exists := r.factories[nickname]; exists {
		return fmt.Errorf("%w: %s: already registered", ErrInvalidProvider, nickname)
	}
	r.order = append(r.order, nickname)
	r.factories[nickname] = factory
	return nil
}

// Lookup returns the descriptor registered under the nickname.
func (r *Registry) Lookup(nickname string) (Descriptor, bool) {
	factory, ok := r.factories[nickname]
	if !ok {
		return Descriptor{}, false
	}
	return Descriptor{Nickname: nickname, New: factory}, true
}

// Nicknames returns all registered nicknames in registration order.
func (r *Registry) Nicknames() []string {
	return append([]string(nil), r.order...)
}

// All returns every registered descriptor in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, nickname := range r.order {
		out = append(out, Descriptor{Nickname: nickname, New: r.factories[nickname]})
	}
	return out
}
