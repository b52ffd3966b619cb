package publisher

import (
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Registry maps DOI prefixes to handler factories.
//
// A registry starts from an optional built-in table that is never mutated;
// Register adds or overrides entries on top of it. A Registry is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	builtin  map[string]Factory
	override map[string]Factory
}

// NewRegistry creates a registry whose built-in table is a copy of builtin.
func NewRegistry(builtin map[string]Factory) *Registry {
	r := &Registry{
		builtin:  make(map[string]Factory, len(builtin)),
		override: make(map[string]Factory),
	}
	for prefix, f := range builtin {
		r.builtin[normalizePrefix(prefix)] = f
	}
	return r
}

// Register maps prefix to f, shadowing any built-in handler for it.
func (r *Registry) Register(prefix string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.override[normalizePrefix(prefix)] = f
}

// Resolve returns the factory registered for prefix.
func (r *Registry) Resolve(prefix string) (Factory, error) {
	prefix = normalizePrefix(prefix)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.override[prefix]; ok {
		return f, nil
	}
	if f, ok := r.builtin[prefix]; ok {
		return f, nil
	}
	return nil, &UnsupportedPublisherError{Prefix: prefix}
}

// ResolveDOI resolves the registrant prefix of a full DOI
// ("10.1371/journal.pone.0012345" -> "10.1371").
func (r *Registry) ResolveDOI(doi string) (Factory, error) {
	return r.Resolve(DOIPrefix(doi))
}

// Prefixes returns every resolvable prefix in sorted order.
func (r *Registry) Prefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := lo.Uniq(append(lo.Keys(r.builtin), lo.Keys(r.override)...))
	sort.Strings(out)
	return out
}

// DOIPrefix returns the part of doi before the first slash, with any
// "doi:" or resolver URL prefix removed.
func DOIPrefix(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, p := range []string{"https://doi.org/", "http://dx.doi.org/", "https://dx.doi.org/", "doi:"} {
		doi = strings.TrimPrefix(doi, p)
	}
	prefix, _, _ := strings.Cut(doi, "/")
	return prefix
}

func normalizePrefix(p string) string {
	return strings.TrimSpace(p)
}
