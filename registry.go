package oaepub

import (
	"github.com/simp-lee/oaepub/publisher"
	"github.com/simp-lee/oaepub/publisher/frontiers"
	"github.com/simp-lee/oaepub/publisher/plos"
)

// builtinHandlers is the built-in prefix table. It is copied into every
// registry and never modified.
var builtinHandlers = map[string]publisher.Factory{
	plos.Prefix:      plos.New,
	frontiers.Prefix: frontiers.New,
}

// DefaultRegistry returns a registry holding the built-in publisher
// handlers. Each call returns a new registry, so registrations on one do
// not leak into another.
func DefaultRegistry() *publisher.Registry {
	return publisher.NewRegistry(builtinHandlers)
}
