package waypoint

import (
	"sync"

	"github.com/agentstation/waypoint/pkg/visits"
)

// Hook function types for subscription events.
type (
	// SubscribedHook is called when a request joins the set.
	SubscribedHook func(r *visits.Request)

	// RemovedHook is called when a request leaves the set, with the
	// reason it terminated.
	RemovedHook func(r *visits.Request, reason error)
)

// Compile-time interface check to ensure proper implementation.
var _ Hooks = (*client)(nil)

// Hooks provides event callback registration.
type Hooks interface {
	// OnSubscribed registers a callback for requests joining the set
	OnSubscribed(SubscribedHook)

	// OnRemoved registers a callback for requests evicted from the set
	OnRemoved(RemovedHook)
}

// OnSubscribed registers a callback for requests joining the set.
func (c *client) OnSubscribed(fn SubscribedHook) {
	c.hooks.onSubscribed(fn)
}

// OnRemoved registers a callback for requests evicted from the set.
func (c *client) OnRemoved(fn RemovedHook) {
	c.hooks.onRemoved(fn)
}

// hooks manages event callbacks for set changes.
type hooks struct {
	mu         sync.RWMutex
	subscribed []SubscribedHook
	removed    []RemovedHook
}

func newHooks() *hooks {
	return &hooks{}
}

func (h *hooks) onSubscribed(fn SubscribedHook) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribed = append(h.subscribed, fn)
}

func (h *hooks) onRemoved(fn RemovedHook) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removed = append(h.removed, fn)
}

func (h *hooks) triggerSubscribed(r *visits.Request) {
	h.mu.RLock()
	fns := h.subscribed
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(r)
	}
}

func (h *hooks) triggerRemoved(r *visits.Request, reason error) {
	h.mu.RLock()
	fns := h.removed
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(r, reason)
	}
}
