package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/hangart/hangart/internal/domain/artwork"
)

type ArtworkRepository struct {
	mu       sync.RWMutex
	artworks map[string]*domain.Artwork
}

func NewArtworkRepository() *ArtworkRepository {
	return &ArtworkRepository{artworks: make(map[string]*domain.Artwork)}
}

func (r *ArtworkRepository) Insert(ctx context.Context, a *domain.Artwork) error {
	_ = ctx
	if a == nil || a.ID == "" {
		return fmt.Errorf("artwork repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.artworks[a.ID] = a.Clone()
	return nil
}

func (r *ArtworkRepository) Get(ctx context.Context, id string) (*domain.Artwork, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.artworks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a.Clone(), nil
}

func (r *ArtworkRepository) Update(ctx context.Context, a *domain.Artwork) error {
	_ = ctx
	if a == nil || a.ID == "" {
		return fmt.Errorf("artwork repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.artworks[a.ID]; !exists {
		return domain.ErrNotFound
	}
	r.artworks[a.ID] = a.Clone()
	return nil
}
