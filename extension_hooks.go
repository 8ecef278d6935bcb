package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-service-adapters/core"
)

// AdapterPack groups adapter registrations contributed by a downstream module.
type AdapterPack struct {
	Name          string
	Registrations []core.AdapterRegistration
}

type CommandQueryBundleFactory func(service CommandQueryService) (any, error)

// ExtensionHooks collects adapter packs and command/query bundles before the
// registry is built. The registry itself stays immutable once built.
type ExtensionHooks struct {
	mu sync.RWMutex

	adapterPacks map[string]AdapterPack
	bundles      map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		adapterPacks: map[string]AdapterPack{},
		bundles:      map[string]CommandQueryBundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterAdapterPack(pack AdapterPack) error {
	if h == nil {
		return fmt.Errorf("services: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("services: adapter pack name is required")
	}
	if len(pack.Registrations) == 0 {
		return fmt.Errorf("services: adapter pack %q has no registrations", name)
	}

	normalized := AdapterPack{
		Name:          name,
		Registrations: append([]core.AdapterRegistration(nil), pack.Registrations...),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.adapterPacks[name]; exists {
		return fmt.Errorf("services: adapter pack %q already registered", name)
	}
	h.adapterPacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(
	name string,
	factory CommandQueryBundleFactory,
) error {
	if h == nil {
		return fmt.Errorf("services: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("services: command/query bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("services: command/query bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("services: command/query bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

// BuildRegistry returns the built-in adapters plus every registered pack, in
// pack name order. Key collisions fail the build.
func (h *ExtensionHooks) BuildRegistry() (*core.AdapterRegistry, error) {
	extra := []core.AdapterRegistration{}
	for _, pack := range h.AdapterPacks() {
		extra = append(extra, pack.Registrations...)
	}
	return DefaultAdapterRegistry(extra...)
}

func (h *ExtensionHooks) BuildCommandQueryBundles(
	service CommandQueryService,
) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if service == nil {
		return nil, fmt.Errorf("services: command/query service is required")
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.bundles))
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		names = append(names, name)
		factories[name] = factory
	}
	h.mu.RUnlock()
	sort.Strings(names)

	result := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](service)
		if err != nil {
			return nil, err
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) AdapterPacks() []AdapterPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.adapterPacks))
	for name := range h.adapterPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]AdapterPack, 0, len(names))
	for _, name := range names {
		pack := h.adapterPacks[name]
		out = append(out, AdapterPack{
			Name:          pack.Name,
			Registrations: append([]core.AdapterRegistration(nil), pack.Registrations...),
		})
	}
	return out
}

func (h *ExtensionHooks) BundleNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
