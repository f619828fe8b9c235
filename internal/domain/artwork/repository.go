package artwork

import "context"

type Repository interface {
	Insert(ctx context.Context, a *Artwork) error
	Get(ctx context.Context, id string) (*Artwork, error)
	Update(ctx context.Context, a *Artwork) error
}
