package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	domain "github.com/hangart/hangart/internal/domain/payment"
)

type PaymentRepository struct {
	mu       sync.RWMutex
	byID     map[string]*domain.Transaction
	byOrder  map[string]string
	events   map[string][]domain.Event
	eventSeq int64
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		byID:    make(map[string]*domain.Transaction),
		byOrder: make(map[string]string),
		events:  make(map[string][]domain.Event),
	}
}

func (r *PaymentRepository) Create(ctx context.Context, t *domain.Transaction) error {
	_ = ctx
	if t == nil || t.ID == "" {
		return fmt.Errorf("payment repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOrder[t.OrderID]; exists {
		return domain.ErrDuplicateOrder
	}
	r.byID[t.ID] = t.Clone()
	r.byOrder[t.OrderID] = t.ID
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t.Clone(), nil
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t.Clone(), nil
}

func (r *PaymentRepository) FindByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	_ = ctx
	if reference == "" {
		return nil, domain.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.byID {
		if t.GatewayReference == reference || t.Reference == reference {
			return t.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *PaymentRepository) Update(ctx context.Context, t *domain.Transaction) error {
	_ = ctx
	if t == nil || t.ID == "" {
		return fmt.Errorf("payment repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.byID[t.ID]
	if !exists {
		return domain.ErrNotFound
	}
	// Status writes must go through UpdateStatus so the terminal guard
	// cannot be bypassed.
	clone := t.Clone()
	clone.Status = stored.Status
	r.byID[t.ID] = clone
	return nil
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status, payload json.RawMessage) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.byID[id]
	if !exists {
		return domain.ErrNotFound
	}
	if stored.Status != from {
		return domain.ErrStatusConflict
	}
	stored.Status = to
	if len(payload) > 0 {
		stored.ProviderResponse = append(json.RawMessage(nil), payload...)
	}
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *PaymentRepository) AppendEvent(ctx context.Context, e *domain.Event) error {
	_ = ctx
	if e == nil || e.TransactionID == "" {
		return fmt.Errorf("payment repository: event transaction id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.eventSeq++
	stored := *e
	stored.ID = r.eventSeq
	r.events[e.TransactionID] = append(r.events[e.TransactionID], stored)
	return nil
}

func (r *PaymentRepository) ListEvents(ctx context.Context, transactionID string) ([]domain.Event, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]domain.Event(nil), r.events[transactionID]...), nil
}
