package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/journey/pkg/ports"
)

// Handlers manages the step handlers available to journeys, by name.
type Handlers struct {
	mu       sync.RWMutex
	handlers map[string]ports.StepHandler
}

// NewHandlers creates a new empty handler catalog.
func NewHandlers() *Handlers {
	return &Handlers{
		handlers: make(map[string]ports.StepHandler),
	}
}

// Register adds a handler to the catalog.
// If a handler with the same name exists, it is overwritten.
func (h *Handlers) Register(name string, handler ports.StepHandler) *Handlers {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[name] = handler
	return h
}

// Lookup returns the handler registered under name.
func (h *Handlers) Lookup(name string) (ports.StepHandler, error) {
	if h == nil {
		return nil, fmt.Errorf("handler not found: %s", name)
	}
	h.mu.RLock()
	handler, ok := h.handlers[name]
	h.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("handler not found: %s", name)
	}
	return handler, nil
}

// Names returns the registered handler names, sorted.
func (h *Handlers) Names() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.handlers))
	for name := range h.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
