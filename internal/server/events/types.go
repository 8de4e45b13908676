// Package events provides a unified event stream for subscription activity.
//
// The broker connects the waypoint client hooks and the observers the server
// installs on every subscription to the realtime transports (WebSocket, SSE)
// through a single pipeline.
package events

import (
	"time"

	"github.com/agentstation/waypoint/pkg/visits"
)

// EventType represents the type of subscription event.
type EventType string

// Event types published by the server.
const (
	// Subscription set events (from client hooks).
	SubscriptionCreated EventType = "subscription.created"
	SubscriptionRemoved EventType = "subscription.removed"

	// Dispatch events (from per-subscription observers).
	VisitDelivered     EventType = "visit.delivered"
	SubscriptionFailed EventType = "subscription.failed"

	// Client events (from transport layers).
	ClientConnected EventType = "client.connected"
)

// Event represents a subscription event with type, timestamp, and data.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Dispatch is the payload of VisitDelivered and SubscriptionFailed events.
type Dispatch struct {
	SubscriptionID visits.ID     `json:"subscription_id"`
	Result         visits.Result `json:"result"`
}

// Removal is the payload of SubscriptionRemoved events.
type Removal struct {
	SubscriptionID visits.ID `json:"subscription_id"`
	Reason         string    `json:"reason"`
	Message        string    `json:"message"`
}

// TypeOf returns the event type for a dispatched result.
func TypeOf(res visits.Result) EventType {
	if res.IsFailure() {
		return SubscriptionFailed
	}
	return VisitDelivered
}
