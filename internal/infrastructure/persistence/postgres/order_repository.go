package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hangart/hangart/internal/domain/order"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Insert(ctx context.Context, o *order.Order) error {
	err := r.db.WithContext(ctx).Create(orderFromDomain(o)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return order.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("postgres: insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var row orderRow
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get order: %w", err)
	}
	return row.toDomain(), nil
}

// Update persists mutable order fields. Items are immutable after creation
// and are not written here.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	res := r.db.WithContext(ctx).
		Model(&orderRow{}).
		Where("id = ?", o.ID).
		Updates(map[string]any{
			"status":            string(o.Status),
			"payment_reference": o.PaymentReference,
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("postgres: update order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return order.ErrNotFound
	}
	return nil
}
