package core

import (
	"fmt"
	"sort"
)

// AdapterRegistry is built once from a fixed set of registrations and never
// changes afterwards, so it is safe for concurrent reads without locking.
type AdapterRegistry struct {
	entries map[AdapterKey]AdapterRegistration
}

func NewAdapterRegistry(registrations ...AdapterRegistration) (*AdapterRegistry, error) {
	entries := make(map[AdapterKey]AdapterRegistration, len(registrations))
	for _, registration := range registrations {
		key := registration.Key()
		if err := key.Validate(); err != nil {
			return nil, fmt.Errorf("core: invalid adapter registration: %w", err)
		}
		if registration.Factory == nil {
			return nil, fmt.Errorf("core: adapter %s factory is required", key)
		}
		if registration.ConfigSchema == nil {
			return nil, fmt.Errorf("core: adapter %s config schema is required", key)
		}
		if _, exists := entries[key]; exists {
			return nil, fmt.Errorf("core: adapter already registered: %s", key)
		}
		entries[key] = registration
	}
	return &AdapterRegistry{entries: entries}, nil
}

func (r *AdapterRegistry) Lookup(serviceType ServiceType, adapterType AdapterType) (AdapterRegistration, bool) {
	if r == nil {
		return AdapterRegistration{}, false
	}
	registration, ok := r.entries[AdapterKey{ServiceType: serviceType, AdapterType: adapterType}]
	return registration, ok
}

func (r *AdapterRegistry) Keys() []AdapterKey {
	if r == nil {
		return nil
	}
	keys := make([]AdapterKey, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

func (r *AdapterRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}
