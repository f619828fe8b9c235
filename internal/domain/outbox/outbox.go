package outbox

import "context"

// Event is a domain event with a stable name used for routing.
type Event interface {
	EventName() string
}

// Handler processes one published event.
type Handler func(ctx context.Context, e Event) error

// Publisher hands events to interested subscribers. Publishing after a
// state change (instead of mutating other contexts inline) is what lets
// fulfillment be retried without touching the transaction again.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers by event name.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
