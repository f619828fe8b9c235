package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hangart/hangart/internal/domain/artwork"
)

type ArtworkRepository struct {
	db *gorm.DB
}

func NewArtworkRepository(db *gorm.DB) *ArtworkRepository {
	return &ArtworkRepository{db: db}
}

func (r *ArtworkRepository) Insert(ctx context.Context, a *artwork.Artwork) error {
	if err := r.db.WithContext(ctx).Create(artworkFromDomain(a)).Error; err != nil {
		return fmt.Errorf("postgres: insert artwork: %w", err)
	}
	return nil
}

func (r *ArtworkRepository) Get(ctx context.Context, id string) (*artwork.Artwork, error) {
	var row artworkRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, artwork.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get artwork: %w", err)
	}
	return row.toDomain(), nil
}

func (r *ArtworkRepository) Update(ctx context.Context, a *artwork.Artwork) error {
	res := r.db.WithContext(ctx).
		Model(&artworkRow{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"available":  a.Available,
			"status":     string(a.Status),
			"price":      a.Price,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("postgres: update artwork: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return artwork.ErrNotFound
	}
	return nil
}
