package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hangart/hangart/internal/domain/payment"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, t *payment.Transaction) error {
	err := r.db.WithContext(ctx).Create(paymentFromDomain(t)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return payment.ErrDuplicateOrder
	}
	if err != nil {
		return fmt.Errorf("postgres: create transaction: %w", err)
	}
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*payment.Transaction, error) {
	var row paymentRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, payment.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find transaction: %w", err)
	}
	return row.toDomain(), nil
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*payment.Transaction, error) {
	var row paymentRow
	err := r.db.WithContext(ctx).First(&row, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, payment.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find transaction by order: %w", err)
	}
	return row.toDomain(), nil
}

func (r *PaymentRepository) FindByReference(ctx context.Context, reference string) (*payment.Transaction, error) {
	var row paymentRow
	err := r.db.WithContext(ctx).
		First(&row, "gateway_reference = ? OR reference = ?", reference, reference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, payment.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find transaction by reference: %w", err)
	}
	return row.toDomain(), nil
}

// Update persists non-status fields; the stored status column is deliberately
// left out so terminal states can only be written through UpdateStatus.
func (r *PaymentRepository) Update(ctx context.Context, t *payment.Transaction) error {
	res := r.db.WithContext(ctx).
		Model(&paymentRow{}).
		Where("id = ?", t.ID).
		Updates(map[string]any{
			"gateway_reference": t.GatewayReference,
			"provider_response": []byte(t.ProviderResponse),
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("postgres: update transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return payment.ErrNotFound
	}
	return nil
}

// UpdateStatus performs the guarded transition: the write applies only when
// the row still carries the expected status. RowsAffected == 0 with an
// existing row means a concurrent caller moved it first.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, from, to payment.Status, payload json.RawMessage) error {
	updates := map[string]any{
		"status":     string(to),
		"updated_at": time.Now().UTC(),
	}
	if len(payload) > 0 {
		updates["provider_response"] = []byte(payload)
	}

	res := r.db.WithContext(ctx).
		Model(&paymentRow{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("postgres: update transaction status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&paymentRow{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return fmt.Errorf("postgres: update transaction status: %w", err)
		}
		if count == 0 {
			return payment.ErrNotFound
		}
		return payment.ErrStatusConflict
	}
	return nil
}

func (r *PaymentRepository) AppendEvent(ctx context.Context, e *payment.Event) error {
	row := eventRow{
		TransactionID: e.TransactionID,
		Kind:          string(e.Kind),
		Message:       e.Message,
		CreatedAt:     e.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("postgres: append event: %w", err)
	}
	e.ID = row.ID
	return nil
}

func (r *PaymentRepository) ListEvents(ctx context.Context, transactionID string) ([]payment.Event, error) {
	var rows []eventRow
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: list events: %w", err)
	}
	events := make([]payment.Event, 0, len(rows))
	for i := range rows {
		events = append(events, rows[i].toDomain())
	}
	return events, nil
}
