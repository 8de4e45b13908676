package events

// Subscriber is an interface for event consumers.
// Implementations adapt the event stream to a specific transport.
type Subscriber interface {
	// Send delivers an event to the subscriber. It must not block.
	Send(Event) error

	// Close cleanly shuts down the subscriber.
	Close() error
}

// SubscriberFunc adapts a plain function to the Subscriber interface.
type SubscriberFunc func(Event) error

// Send calls f(e).
func (f SubscriberFunc) Send(e Event) error {
	return f(e)
}

// Close is a no-op.
func (f SubscriberFunc) Close() error {
	return nil
}
