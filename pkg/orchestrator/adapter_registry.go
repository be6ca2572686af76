package orchestrator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-fmschema/pkg/schema"
)

// AdapterRegistry holds the schema formats a run can read. Formats are probed
// in registration order, so register the most specific format first; a
// format may also be reachable through aliases (for example "oas" for
// "openapi").
type AdapterRegistry struct {
	mu      sync.RWMutex
	formats []schema.FormatAdapter
	names   map[string]int
}

// NewAdapterRegistry creates an empty registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{names: make(map[string]int)}
}

// Register adds adapter under its Name() and any aliases. A name or alias
// that is already taken is an error and leaves the registry unchanged.
func (r *AdapterRegistry) Register(adapter schema.FormatAdapter, aliases ...string) error {
	if adapter == nil {
		return fmt.Errorf("orchestrator: schema format adapter is required")
	}
	keys := []string{formatKey(adapter.Name())}
	if keys[0] == "" {
		return fmt.Errorf("orchestrator: schema format name is required")
	}
	for _, alias := range aliases {
		if key := formatKey(alias); key != "" {
			keys = append(keys, key)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range keys {
		if _, taken := r.names[key]; taken {
			return fmt.Errorf("orchestrator: schema format %q already registered", key)
		}
	}
	r.formats = append(r.formats, adapter)
	for _, key := range keys {
		r.names[key] = len(r.formats) - 1
	}
	return nil
}

// MustRegister panics on registration failure.
func (r *AdapterRegistry) MustRegister(adapter schema.FormatAdapter, aliases ...string) {
	if err := r.Register(adapter, aliases...); err != nil {
		panic(err)
	}
}

// Get returns the adapter registered under name or one of its aliases.
func (r *AdapterRegistry) Get(name string) (schema.FormatAdapter, error) {
	key := formatKey(name)
	if key == "" {
		return nil, fmt.Errorf("orchestrator: schema format name is required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.names[key]
	if !ok {
		return nil, fmt.Errorf("orchestrator: unknown schema format %q (known: %s)", key, strings.Join(r.listLocked(), ", "))
	}
	return r.formats[idx], nil
}

// List returns the adapter names in probe order. Aliases are not listed.
func (r *AdapterRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

func (r *AdapterRegistry) listLocked() []string {
	names := make([]string, 0, len(r.formats))
	for _, adapter := range r.formats {
		names = append(names, formatKey(adapter.Name()))
	}
	return names
}

// Select picks the adapter for doc. An explicit format wins. Otherwise the
// first adapter in probe order that recognises the payload is used, and
// fallback names the adapter for payloads nobody recognises.
func (r *AdapterRegistry) Select(format string, doc schema.Document, fallback string) (schema.FormatAdapter, error) {
	if r == nil {
		return nil, fmt.Errorf("orchestrator: schema format registry is nil")
	}
	if strings.TrimSpace(format) != "" {
		return r.Get(format)
	}

	r.mu.RLock()
	formats := append([]schema.FormatAdapter(nil), r.formats...)
	r.mu.RUnlock()
	for _, adapter := range formats {
		if adapter.Detect(doc.Source(), doc.Raw()) {
			return adapter, nil
		}
	}
	if strings.TrimSpace(fallback) == "" {
		return nil, fmt.Errorf("orchestrator: unable to detect schema format of %s", doc.Location())
	}
	return r.Get(fallback)
}

func formatKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
