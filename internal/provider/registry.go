package provider

import (
	"sync"

	"github.com/sydlexius/calliope/internal/reconcile"
)

// Registry holds all registered provider adapters keyed by name.
type Registry struct {
	mu      sync.RWMutex
	clients map[reconcile.Provider]Client
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[reconcile.Provider]Client),
	}
}

// Register adds a client to the registry.
func (r *Registry) Register(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.Name()] = c
}

// Get returns a client by name, or nil if not registered.
func (r *Registry) Get(name reconcile.Provider) Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[name]
}

// All returns all registered clients in priority order.
func (r *Registry) All() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []Client
	for _, name := range reconcile.AllProviders() {
		if c, ok := r.clients[name]; ok {
			result = append(result, c)
		}
	}
	return result
}
