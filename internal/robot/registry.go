package robot

import (
	"fmt"
	"sort"
	"sync"

	"slackhook/internal/domain"
)

// Constructor builds an adapter from the robot handle. It plays the role of
// the adapter's initialize step: everything it needs comes from h.
type Constructor func(h Handle) (domain.Adapter, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// RegisterAdapter associates an adapter constructor with a key.
func RegisterAdapter(name string, ctor Constructor) error {
	if name == "" || ctor == nil {
		return fmt.Errorf("adapter registration requires a name and constructor")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		return fmt.Errorf("adapter %s already registered", name)
	}
	registry[name] = ctor
	return nil
}

// MustRegisterAdapter panics on error; intended for init() in adapter packages.
func MustRegisterAdapter(name string, ctor Constructor) {
	if err := RegisterAdapter(name, ctor); err != nil {
		panic(err)
	}
}

// BuildAdapter constructs the adapter registered under name.
func BuildAdapter(name string, h Handle) (domain.Adapter, error) {
	registryMu.RLock()
	ctor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown adapter %s (registered: %v)", name, RegisteredAdapters())
	}
	return ctor(h)
}

// RegisteredAdapters returns the sorted registered adapter keys.
func RegisteredAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
