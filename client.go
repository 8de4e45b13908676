// Package waypoint provides the main entry point for visit subscriptions.
// It owns a set of visits.Request values, keyed by ID, and bridges a visit
// producer (a sensing subsystem, a replayed scenario, an HTTP feed) to every
// subscription that is currently running.
//
// The client wraps the single-subject Request with:
// - Set semantics: a request is held at most once, deduplicated by ID
// - Eviction of requests that terminate with the remove flag set
// - Broadcast delivery of visits and terminating failures
// - Hooks for subscriptions being added and removed
//
// Example usage:
//
//	wp, err := waypoint.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer wp.Close()
//
//	req, err := wp.Subscribe(func(res visits.Result) {
//	    if v, ok := res.Visit(); ok {
//	        fmt.Println("visit at", v.Coordinate)
//	    }
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	wp.Deliver(visits.Visit{Coordinate: visits.Coordinate{Latitude: 51.5, Longitude: -0.12}})
//	_ = wp.Stop(req.ID())
package waypoint

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/waypoint/pkg/errors"
	"github.com/agentstation/waypoint/pkg/visits"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Client manages a set of visit subscriptions.
//
// Client methods are safe for concurrent use. Observers and hooks run
// synchronously while the client is dispatching; they may act on the
// *visits.Request they are given but must not call back into the client's
// lifecycle or producer methods, which would deadlock.
type Client interface {

	// Subscriptions handles membership and inspection of the set
	Subscriptions

	// Lifecycle drives individual subscriptions through their states
	Lifecycle

	// Producer delivers visits and failures to the set
	Producer

	// Hooks provides access to event callback registration
	Hooks

	// Close cancels every subscription and rejects new ones.
	Close() error
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options

	// mu guards the set; opMu serializes everything that touches a
	// request's state or observers.
	mu       sync.RWMutex
	opMu     sync.Mutex
	requests map[visits.ID]*visits.Request
	order    []visits.ID
	closed   bool

	hooks *hooks
}

// New creates a new Client instance with the given options.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}

	c := &client{
		options:  o,
		requests: make(map[visits.ID]*visits.Request),
		hooks:    newHooks(),
	}

	c.logger().Debug().
		Bool("auto_start", o.autoStart).
		Msg("Waypoint client created")

	return c, nil
}

// Close cancels every subscription and rejects new ones.
func (c *client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	stopped := c.broadcastStop(errors.ErrCanceled)
	c.logger().Debug().Int("stopped", stopped).Msg("Waypoint client closed")
	return nil
}

func (c *client) logger() *zerolog.Logger {
	return c.options.logger
}
