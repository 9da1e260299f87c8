package providers

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/notewind/syncagent/internal/models"
)

// Registry maps provider identifiers to ProviderClient templates. The default
// registry is populated by each provider package's init(); tests construct
// their own and register fakes. After startup a registry is effectively
// read-only, so concurrent dispatch against it is safe.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]models.ProviderClient
	catalog map[string]models.ProviderInfo
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]models.ProviderClient),
		catalog: make(map[string]models.ProviderInfo),
	}
}

// Register adds a provider template to the registry. The first registration
// for a name wins.
func (r *Registry) Register(info models.ProviderInfo, client models.ProviderClient) {
	name := strings.ToLower(info.ID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[name]; exists {
		return
	}
	r.clients[name] = client
	r.catalog[name] = info
}

// Set replaces a provider in the registry (useful for testing)
func (r *Registry) Set(info models.ProviderInfo, client models.ProviderClient) {
	name := strings.ToLower(info.ID)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	r.catalog[name] = info
}

// CreateInstance returns a fresh, uninitialized instance of the named
// provider client. Every sync pass gets its own instance so no credentials or
// connections leak between calls.
func (r *Registry) CreateInstance(name string) (models.ProviderClient, error) {
	name = strings.ToLower(name)
	r.mu.RLock()
	template, exists := r.clients[name]
	r.mu.RUnlock()
	if !exists {
		return nil, &models.ErrUnsupportedProvider{Provider: name}
	}

	// Create a new instance of the same type
	clientType := reflect.TypeOf(template)
	if clientType.Kind() == reflect.Pointer {
		clientType = clientType.Elem()
	}
	newInstance := reflect.New(clientType)
	return newInstance.Interface().(models.ProviderClient), nil
}

// Catalog returns the static provider listing, sorted by identifier. It
// reflects what is registered, independent of runtime availability.
func (r *Registry) Catalog() []models.ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.ProviderInfo, 0, len(r.catalog))
	for _, info := range r.catalog {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry populated by provider init()s.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a provider to the default registry.
func Register(info models.ProviderInfo, client models.ProviderClient) {
	defaultRegistry.Register(info, client)
}
