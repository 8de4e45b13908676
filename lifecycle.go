package waypoint

import (
	"github.com/agentstation/waypoint/pkg/errors"
	"github.com/agentstation/waypoint/pkg/visits"
)

// Compile-time interface check to ensure proper implementation.
var _ Lifecycle = (*client)(nil)

// Lifecycle drives individual held requests.
type Lifecycle interface {
	// Start moves an idle or paused request to running
	Start(id visits.ID) error

	// Pause moves a running request to paused
	Pause(id visits.ID) error

	// Stop cancels a request and evicts it from the set
	Stop(id visits.ID) error

	// StopWithReason terminates a request with reason; remove controls
	// whether it is evicted from the set
	StopWithReason(id visits.ID, reason error, remove bool) error
}

// Start moves an idle or paused request to running.
func (c *client) Start(id visits.ID) error {
	return c.with(id, (*visits.Request).Start)
}

// Pause moves a running request to paused.
func (c *client) Pause(id visits.ID) error {
	return c.with(id, (*visits.Request).Pause)
}

// Stop cancels a request and evicts it from the set.
func (c *client) Stop(id visits.ID) error {
	return c.with(id, (*visits.Request).Stop)
}

// StopWithReason terminates a request with reason.
func (c *client) StopWithReason(id visits.ID, reason error, remove bool) error {
	return c.with(id, func(r *visits.Request) {
		r.StopWithReason(reason, remove)
	})
}

// with runs fn on the held request under the operation lock.
func (c *client) with(id visits.ID, fn func(*visits.Request)) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	r, ok := c.Request(id)
	if !ok {
		return errors.NewNotFoundError("subscription", id.String())
	}
	fn(r)
	return nil
}
