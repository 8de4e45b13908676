// Package visits implements a single-subject subscription to "visit" events
// produced by a location-sensing subsystem.
//
// A Request tracks its own lifecycle and fans each received visit, or the
// terminating failure, out to every registered observer:
//
//	idle ──Start──▶ running ──Pause──▶ paused
//	                   ▲                 │
//	                   └─────Start───────┘
//	idle | running | paused ──Stop / Fail──▶ finished (terminal)
//
// Only a running request applies visits. Visits fed to an idle, paused or
// finished request are dropped silently: no error, no state change and no
// dispatch. Stopping delivers exactly one failure result (ErrCanceled unless
// the producer supplied a different reason) and leaves the request inert.
//
// Dispatch is synchronous and ordered: every observer registered when the
// dispatch starts is invoked once, in registration order, on the caller's
// goroutine. Observers are not isolated from one another; a panicking
// observer aborts delivery to the observers registered after it.
//
// A Request performs no locking. Callers that drive one request from several
// goroutines must serialize access themselves; the waypoint client does this
// for the requests it owns.
//
// Requests are identified by an immutable ID generated at creation. Two
// requests are equal if and only if their IDs are equal, so owners should key
// maps and sets by ID rather than by pointer.
package visits
