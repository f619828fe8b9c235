package payment

import "time"

// EventKind is the structured classification of an audit log entry, so tests
// and tooling can assert on kinds instead of message substrings.
type EventKind string

const (
	EventInitiated         EventKind = "initiated"
	EventSubmitted         EventKind = "submitted"
	EventGatewayRejected   EventKind = "gateway_rejected"
	EventWebhookReceived   EventKind = "webhook_received"
	EventPollResult        EventKind = "poll_result"
	EventConfirmed         EventKind = "confirmed"
	EventFailed            EventKind = "failed"
	EventCancelled         EventKind = "cancelled"
	EventFulfilled         EventKind = "fulfilled"
	EventFulfillmentFailed EventKind = "fulfillment_failed"
)

// Event is one append-only audit log entry owned by a single transaction.
// Entries are never mutated or deleted; intermediate provider errors are
// recorded here and nowhere else.
type Event struct {
	ID            int64
	TransactionID string
	Kind          EventKind
	Message       string
	CreatedAt     time.Time
}

func NewEvent(transactionID string, kind EventKind, message string) *Event {
	return &Event{
		TransactionID: transactionID,
		Kind:          kind,
		Message:       message,
		CreatedAt:     time.Now().UTC(),
	}
}

// SucceededEvent is published on the bus once a transaction reaches the
// successful terminal state, for listeners outside the payment context.
type SucceededEvent struct {
	TransactionID string
	OrderID       string
	OccurredAt    time.Time
}

func (SucceededEvent) EventName() string { return "payment.succeeded" }

func NewSucceededEvent(t *Transaction) SucceededEvent {
	return SucceededEvent{
		TransactionID: t.ID,
		OrderID:       t.OrderID,
		OccurredAt:    time.Now().UTC(),
	}
}

// FulfillmentRetryEvent is published when fulfillment fails after a
// successful payment. The money has already moved, so the transaction keeps
// its successful status and the fulfillment worker re-runs the idempotent
// side effects.
type FulfillmentRetryEvent struct {
	TransactionID string
	Reason        string
	OccurredAt    time.Time
}

func (FulfillmentRetryEvent) EventName() string { return "payment.fulfillment_retry" }

func NewFulfillmentRetryEvent(transactionID, reason string) FulfillmentRetryEvent {
	return FulfillmentRetryEvent{
		TransactionID: transactionID,
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	}
}
