package waypoint

import (
	"github.com/agentstation/waypoint/pkg/errors"
	"github.com/agentstation/waypoint/pkg/visits"
)

// Compile-time interface check to ensure proper implementation.
var _ Subscriptions = (*client)(nil)

// Subscriptions manages membership of the request set.
type Subscriptions interface {
	// Subscribe creates a request with the given observers and adds it
	// to the set, starting it unless auto-start is disabled.
	Subscribe(callbacks ...visits.Callback) (*visits.Request, error)

	// Add puts an existing request in the set. It reports false if a
	// request with the same ID is already held, r is finished, or the
	// client is closed. A request may be held by several clients; a stop
	// with the remove flag evicts it from each of them.
	Add(r *visits.Request) bool

	// Observe registers an additional observer on a held request.
	Observe(id visits.ID, cb visits.Callback) (visits.Token, error)

	// Unobserve removes an observer registered with Observe.
	Unobserve(id visits.ID, token visits.Token) error

	// Request returns the held request with the given ID.
	Request(id visits.ID) (*visits.Request, bool)

	// Requests returns the held requests in insertion order.
	Requests() []*visits.Request

	// Status returns a point-in-time copy of a request's state.
	Status(id visits.ID) (Status, error)

	// Statuses returns the status of every held request in insertion order.
	Statuses() []Status

	// Len returns the number of held requests.
	Len() int
}

// Status is a point-in-time copy of a request.
type Status struct {
	ID        visits.ID     `json:"id" yaml:"id"`
	State     visits.State  `json:"state" yaml:"state"`
	LastValue *visits.Visit `json:"last_value,omitempty" yaml:"last_value,omitempty"`
	Observers int           `json:"observers" yaml:"observers"`
}

// StatusOf returns a copy of the current state of r. Like every other read of
// a request it must not race with dispatch.
func StatusOf(r *visits.Request) Status {
	s := Status{
		ID:        r.ID(),
		State:     r.State(),
		Observers: r.ObserverCount(),
	}
	if v, ok := r.LastValue(); ok {
		s.LastValue = &v
	}
	return s
}

// Subscribe creates a request with the given observers and adds it to the set.
func (c *client) Subscribe(callbacks ...visits.Callback) (*visits.Request, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	r := visits.NewRequest(visits.WithLogger(c.logger()))
	for _, cb := range callbacks {
		r.AddObserver(cb)
	}

	if !c.add(r) {
		return nil, errors.WrapResource("create", "subscription", r.ID().String(), errors.ErrClosed)
	}

	if c.options.autoStart {
		r.Start()
	}
	return r, nil
}

// Add puts an existing request in the set.
func (c *client) Add(r *visits.Request) bool {
	if r == nil {
		return false
	}
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.add(r)
}

// add registers r and fires the subscribed hooks. Callers hold opMu.
func (c *client) add(r *visits.Request) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if _, exists := c.requests[r.ID()]; exists || r.State().IsTerminal() {
		c.mu.Unlock()
		return false
	}
	c.requests[r.ID()] = r
	c.order = append(c.order, r.ID())
	c.mu.Unlock()

	r.OnStop(c.handleStop)

	c.logger().Info().
		Str("subscription_id", r.ID().String()).
		Stringer("state", r.State()).
		Msg("Subscription added")

	c.hooks.triggerSubscribed(r)
	return true
}

// Observe registers an additional observer on a held request.
func (c *client) Observe(id visits.ID, cb visits.Callback) (visits.Token, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	r, ok := c.Request(id)
	if !ok {
		return 0, errors.NewNotFoundError("subscription", id.String())
	}
	if cb == nil {
		return 0, errors.NewValidationError("callback", nil, "observer must not be nil")
	}
	return r.AddObserver(cb), nil
}

// Unobserve removes an observer registered with Observe.
func (c *client) Unobserve(id visits.ID, token visits.Token) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	r, ok := c.Request(id)
	if !ok {
		return errors.NewNotFoundError("subscription", id.String())
	}
	if !r.RemoveObserver(token) {
		return errors.NewNotFoundError("observer", id.String())
	}
	return nil
}

// Request returns the held request with the given ID.
func (c *client) Request(id visits.ID) (*visits.Request, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.requests[id]
	return r, ok
}

// Requests returns the held requests in insertion order.
func (c *client) Requests() []*visits.Request {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := make([]*visits.Request, 0, len(c.order))
	for _, id := range c.order {
		list = append(list, c.requests[id])
	}
	return list
}

// Status returns a point-in-time copy of a request's state.
func (c *client) Status(id visits.ID) (Status, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	r, ok := c.Request(id)
	if !ok {
		return Status{}, errors.NewNotFoundError("subscription", id.String())
	}
	return StatusOf(r), nil
}

// Statuses returns the status of every held request in insertion order.
func (c *client) Statuses() []Status {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	requests := c.Requests()
	list := make([]Status, 0, len(requests))
	for _, r := range requests {
		list = append(list, StatusOf(r))
	}
	return list
}

// Len returns the number of held requests.
func (c *client) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.requests)
}

// handleStop is installed as every held request's stop handler. It evicts
// the request when the producer asked for removal.
func (c *client) handleStop(r *visits.Request, reason error, remove bool) {
	if !remove {
		return
	}

	c.mu.Lock()
	held, ok := c.requests[r.ID()]
	if !ok || held != r {
		c.mu.Unlock()
		return
	}
	delete(c.requests, r.ID())
	for i, id := range c.order {
		if id == r.ID() {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	c.logger().Info().
		Str("subscription_id", r.ID().String()).
		Str("reason", visits.ReasonCode(reason)).
		Msg("Subscription removed")

	c.hooks.triggerRemoved(r, reason)
}
