package waypoint

import (
	"github.com/agentstation/waypoint/pkg/errors"
	"github.com/agentstation/waypoint/pkg/visits"
)

// Compile-time interface check to ensure proper implementation.
var _ Producer = (*client)(nil)

// Producer is the bridge from a visit source to the held requests.
type Producer interface {
	// Deliver applies a visit to every held request and returns how many
	// were running and dispatched it
	Deliver(v visits.Visit) int

	// Complete applies a visit to a single held request and reports whether
	// it was running and dispatched the visit
	Complete(id visits.ID, v visits.Visit) (bool, error)

	// Fail terminates every held request with reason and evicts them.
	// It returns how many requests were terminated.
	Fail(reason error) int
}

// Deliver applies a visit to every held request in insertion order.
func (c *client) Deliver(v visits.Visit) int {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	delivered := 0
	for _, r := range c.Requests() {
		if r.State().CanReceiveEvents() {
			delivered++
		}
		r.Complete(v)
	}

	c.logger().Debug().
		Stringer("coordinate", v.Coordinate).
		Int("delivered", delivered).
		Msg("Visit delivered")

	return delivered
}

// Complete applies a visit to a single held request. The state check and
// the delivery happen under the same operation lock.
func (c *client) Complete(id visits.ID, v visits.Visit) (bool, error) {
	var delivered bool
	err := c.with(id, func(r *visits.Request) {
		delivered = r.State().CanReceiveEvents()
		r.Complete(v)
	})
	return delivered, err
}

// Fail terminates every held request with reason.
func (c *client) Fail(reason error) int {
	if reason == nil {
		reason = errors.ErrCanceled
	}
	stopped := c.broadcastStop(reason)

	c.logger().Warn().
		Err(reason).
		Str("reason", visits.ReasonCode(reason)).
		Int("stopped", stopped).
		Msg("Visit monitoring failed")

	return stopped
}

func (c *client) broadcastStop(reason error) int {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	stopped := 0
	for _, r := range c.Requests() {
		if r.State().IsTerminal() {
			continue
		}
		r.StopWithReason(reason, true)
		stopped++
	}
	return stopped
}
