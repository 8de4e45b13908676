package visits

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agentstation/waypoint/pkg/errors"
	"github.com/agentstation/waypoint/pkg/logging"
)

// StopFunc is invoked once after a request has delivered its terminating
// failure. remove is the producer's advice to the owning collection; the
// request itself does not act on it.
type StopFunc func(r *Request, reason error, remove bool)

// Option configures a Request at creation.
type Option func(*Request)

// WithLogger sets the logger used for lifecycle diagnostics.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Request) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithID overrides the generated identifier. Owners use it to rebuild a
// request under a known ID; an empty ID is ignored.
func WithID(id ID) Option {
	return func(r *Request) {
		if !id.IsZero() {
			r.id = id
		}
	}
}

// Request is a subscription to visit events.
type Request struct {
	id        ID
	state     State
	value     *Visit
	observers observers
	onStop    []StopFunc
	logger    *zerolog.Logger
}

// NewRequest creates an idle request with a fresh ID, no observers and no
// cached visit.
func NewRequest(opts ...Option) *Request {
	r := &Request{
		id:     NewID(),
		state:  StateIdle,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ID returns the immutable identifier.
func (r *Request) ID() ID {
	return r.id
}

// State returns the current lifecycle state.
func (r *Request) State() State {
	return r.state
}

// LastValue returns the most recently delivered visit.
func (r *Request) LastValue() (Visit, bool) {
	if r.value == nil {
		return Visit{}, false
	}
	return *r.value, true
}

// Start moves an idle or paused request to running. The cached visit is not
// re-dispatched.
func (r *Request) Start() {
	switch r.state {
	case StateIdle, StatePaused:
		r.transition(StateRunning)
	}
}

// Pause moves a running request to paused. Nothing is dispatched.
func (r *Request) Pause() {
	if r.state == StateRunning {
		r.transition(StatePaused)
	}
}

// Stop cancels the request: observers receive a single ErrCanceled failure and
// the request becomes finished. Stopping a finished request does nothing.
func (r *Request) Stop() {
	r.StopWithReason(errors.ErrCanceled, true)
}

// Fail terminates the request with a producer-reported reason.
func (r *Request) Fail(reason error) {
	r.StopWithReason(reason, true)
}

// StopWithReason terminates the request with reason, or ErrCanceled when
// reason is nil. The state becomes finished before the failure is dispatched,
// so observers that stop the request again from their callback are ignored.
// Stop handlers run in installation order after every observer has been
// notified.
func (r *Request) StopWithReason(reason error, remove bool) {
	if r.state.IsTerminal() {
		return
	}
	if reason == nil {
		reason = errors.ErrCanceled
	}

	r.transition(StateFinished)
	r.dispatch(Failure(reason))

	r.logger.Debug().
		Str("subscription_id", r.id.String()).
		Str("reason", ReasonCode(reason)).
		Bool("remove", remove).
		Msg("Subscription stopped")

	for _, fn := range r.onStop {
		fn(r, reason, remove)
	}
}

// Complete applies a visit from the producer. Visits are applied only while
// running; in every other state they are dropped without error.
func (r *Request) Complete(v Visit) {
	if !r.state.CanReceiveEvents() {
		r.logger.Trace().
			Str("subscription_id", r.id.String()).
			Stringer("state", r.state).
			Msg("Visit dropped")
		return
	}

	r.value = &v
	r.dispatch(Success(v))
}

// AddObserver appends cb to the observer list and returns a token for
// RemoveObserver. A nil callback is not registered and yields the zero Token.
func (r *Request) AddObserver(cb Callback) Token {
	if cb == nil {
		return 0
	}
	return r.observers.add(cb)
}

// RemoveObserver unregisters the observer identified by token, preserving the
// order of the remaining observers.
func (r *Request) RemoveObserver(token Token) bool {
	return r.observers.remove(token)
}

// ObserverCount returns the number of registered observers.
func (r *Request) ObserverCount() int {
	return r.observers.len()
}

// OnStop adds a handler called after the terminating dispatch. Handlers
// accumulate; every owning collection installs its own to honour the remove
// advice. A nil handler is ignored.
func (r *Request) OnStop(fn StopFunc) {
	if fn == nil {
		return
	}
	r.onStop = append(r.onStop, fn)
}

// Equal reports whether both requests have the same ID.
func (r *Request) Equal(other *Request) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.id == other.id
}

// String implements fmt.Stringer.
func (r *Request) String() string {
	return fmt.Sprintf("visits.Request{id=%s state=%s}", r.id, r.state)
}

func (r *Request) transition(to State) {
	from := r.state
	r.state = to
	r.logger.Debug().
		Str("subscription_id", r.id.String()).
		Stringer("from", from).
		Stringer("to", to).
		Msg("Subscription state changed")
}

// dispatch delivers res to every observer without consulting the state.
func (r *Request) dispatch(res Result) {
	r.observers.dispatch(res)
}
