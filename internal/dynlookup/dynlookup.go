// Package dynlookup implements permissive name resolution: identifiers the
// analyzer cannot resolve are deferred to run time instead of failing.
package dynlookup

import (
	"kiln/internal/sema"
	"kiln/internal/source"
)

// Slot is the analyzer extension point a resolver is installed into.
type Slot interface {
	InstallResolver(r sema.ExternalResolver) error
	RemoveResolver() bool
}

// Factory builds a fresh resolver for every Enable.
type Factory func() sema.ExternalResolver

// Handler owns the dynamic lookup flag of a session.
type Handler struct {
	slot    Slot
	factory Factory
	current sema.ExternalResolver
}

// New binds a handler to slot. A nil factory installs IDHandler.
func New(slot Slot, factory Factory) *Handler {
	if factory == nil {
		factory = func() sema.ExternalResolver { return NewIDHandler() }
	}
	return &Handler{slot: slot, factory: factory}
}

func (h *Handler) Enabled() bool {
	return h.current != nil
}

// Resolver returns the installed resolver, nil when disabled.
func (h *Handler) Resolver() sema.ExternalResolver {
	return h.current
}

// Enable installs a new resolver. Enabling twice, or enabling while someone
// else holds the slot, returns sema.ErrResolverInstalled.
func (h *Handler) Enable() error {
	if h.current != nil {
		return sema.ErrResolverInstalled
	}
	r := h.factory()
	if err := h.slot.InstallResolver(r); err != nil {
		return err
	}
	h.current = r
	return nil
}

// Disable removes the resolver; a no-op when already off.
func (h *Handler) Disable() {
	if h.current == nil {
		return
	}
	h.slot.RemoveResolver()
	h.current = nil
}

// Set switches to on.
func (h *Handler) Set(on bool) error {
	if !on {
		h.Disable()
		return nil
	}
	if h.Enabled() {
		return nil
	}
	return h.Enable()
}

// IDHandler defers every name and remembers what it was asked.
type IDHandler struct {
	names []string
}

func NewIDHandler() *IDHandler {
	return &IDHandler{}
}

// LookupUnresolved implements sema.ExternalResolver.
func (h *IDHandler) LookupUnresolved(name string, _ source.Span) bool {
	h.names = append(h.names, name)
	return true
}

// Calls reports how many times the analyzer consulted the handler.
func (h *IDHandler) Calls() int {
	return len(h.names)
}

// Names lists the deferred names in lookup order.
func (h *IDHandler) Names() []string {
	return append([]string(nil), h.names...)
}
