package datastore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

// Handler binds a data type tag to the store serving it.
type Handler struct {
	// Store serves records of this data type.
	Store Store

	// Description documents the record category for operators.
	Description string
}

// Registry maps data type tags to their handlers. Policies name a data
// type; the engine resolves it here at execution time, so handlers may be
// registered after policies referencing them are written.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]*Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]*Handler),
	}
}

// Register binds a data type to a handler. Registering an already-bound
// type is an error; replacing a live handler mid-flight is never safe.
func (r *Registry) Register(dataType string, h *Handler) error {
	if dataType == "" {
		return fmt.Errorf("data type must not be empty")
	}
	if h == nil || h.Store == nil {
		return fmt.Errorf("handler for %q has no store", dataType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[dataType]; ok {
		return fmt.Errorf("data type %q already registered", dataType)
	}
	r.handlers[dataType] = h
	return nil
}

// Lookup resolves the handler for a data type. Returns a NotFoundError for
// unknown types.
func (r *Registry) Lookup(dataType string) (*Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[dataType]
	if !ok {
		return nil, retention.NewNotFoundError("data_type", dataType)
	}
	return h, nil
}

// Types returns the registered data type tags, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
