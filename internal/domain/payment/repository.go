package payment

import (
	"context"
	"encoding/json"
)

type Repository interface {
	// Create persists a new transaction. At most one transaction may exist
	// per order; a second insert for the same order returns ErrDuplicateOrder.
	Create(ctx context.Context, t *Transaction) error
	FindByID(ctx context.Context, id string) (*Transaction, error)
	FindByOrderID(ctx context.Context, orderID string) (*Transaction, error)
	// FindByReference resolves a transaction by its gateway reference,
	// falling back to the local reference for payloads sent before the
	// gateway assigned one.
	FindByReference(ctx context.Context, reference string) (*Transaction, error)
	// Update persists non-status fields (gateway reference, provider payload).
	Update(ctx context.Context, t *Transaction) error
	// UpdateStatus is the only way a terminal status is written. The update
	// is conditional on the current stored status; when the row has moved on
	// concurrently it returns ErrStatusConflict and writes nothing.
	UpdateStatus(ctx context.Context, id string, from, to Status, payload json.RawMessage) error
	AppendEvent(ctx context.Context, e *Event) error
	ListEvents(ctx context.Context, transactionID string) ([]Event, error)
}
