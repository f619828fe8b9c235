package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domartwork "github.com/hangart/hangart/internal/domain/artwork"
	domain "github.com/hangart/hangart/internal/domain/order"
	"github.com/hangart/hangart/internal/infrastructure/memory"
)

func seedArtwork(t *testing.T, repo *memory.ArtworkRepository, price int64, status domartwork.Status, available bool) *domartwork.Artwork {
	t.Helper()
	art := &domartwork.Artwork{
		ID:        uuid.NewString(),
		ArtistID:  uuid.NewString(),
		Title:     "Untitled",
		Price:     decimal.NewFromInt(price),
		Available: available,
		Status:    status,
	}
	require.NoError(t, repo.Insert(context.Background(), art))
	return art
}

func TestCreateSnapshotsPricesAndTotals(t *testing.T) {
	orders := memory.NewOrderRepository()
	artworks := memory.NewArtworkRepository()
	svc := NewService(orders, artworks, nil, nil)
	ctx := context.Background()

	a := seedArtwork(t, artworks, 45000, domartwork.StatusApproved, true)
	b := seedArtwork(t, artworks, 30000, domartwork.StatusApproved, true)

	ord, err := svc.Create(ctx, CreateInput{
		BuyerID: "buyer-1",
		Items: []CreateItemInput{
			{ArtworkID: a.ID, Quantity: 1},
			{ArtworkID: b.ID, Quantity: 2},
		},
		ShippingFee: decimal.NewFromInt(2000),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPendingPayment, ord.Status)
	assert.Contains(t, ord.Number, "ORD-")
	assert.Equal(t, "105000", ord.Subtotal.String())
	assert.Equal(t, "107000", ord.Total.String())
	require.Len(t, ord.Items, 2)
	assert.Equal(t, a.Price.String(), ord.Items[0].Price.String())

	// The snapshot must survive a later price change.
	a.Price = decimal.NewFromInt(99999)
	require.NoError(t, artworks.Update(ctx, a))
	stored, err := svc.Get(ctx, ord.ID, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, "45000", stored.Items[0].Price.String())
}

func TestCreateRejectsUnavailableArtwork(t *testing.T) {
	orders := memory.NewOrderRepository()
	artworks := memory.NewArtworkRepository()
	svc := NewService(orders, artworks, nil, nil)
	ctx := context.Background()

	sold := seedArtwork(t, artworks, 45000, domartwork.StatusSold, false)
	_, err := svc.Create(ctx, CreateInput{
		BuyerID: "buyer-1",
		Items:   []CreateItemInput{{ArtworkID: sold.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domartwork.ErrUnavailable)

	draft := seedArtwork(t, artworks, 45000, domartwork.StatusDraft, true)
	_, err = svc.Create(ctx, CreateInput{
		BuyerID: "buyer-1",
		Items:   []CreateItemInput{{ArtworkID: draft.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domartwork.ErrUnavailable)
}

func TestCreateRequiresItems(t *testing.T) {
	svc := NewService(memory.NewOrderRepository(), memory.NewArtworkRepository(), nil, nil)
	_, err := svc.Create(context.Background(), CreateInput{BuyerID: "buyer-1"})
	assert.ErrorIs(t, err, domain.ErrNoItems)
}

func TestCreateDefaultsQuantityToOne(t *testing.T) {
	orders := memory.NewOrderRepository()
	artworks := memory.NewArtworkRepository()
	svc := NewService(orders, artworks, nil, nil)

	a := seedArtwork(t, artworks, 45000, domartwork.StatusApproved, true)
	ord, err := svc.Create(context.Background(), CreateInput{
		BuyerID: "buyer-1",
		Items:   []CreateItemInput{{ArtworkID: a.ID}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ord.Items[0].Quantity)
}

func TestGetHidesForeignOrders(t *testing.T) {
	orders := memory.NewOrderRepository()
	artworks := memory.NewArtworkRepository()
	svc := NewService(orders, artworks, nil, nil)
	ctx := context.Background()

	a := seedArtwork(t, artworks, 45000, domartwork.StatusApproved, true)
	ord, err := svc.Create(ctx, CreateInput{
		BuyerID: "buyer-1",
		Items:   []CreateItemInput{{ArtworkID: a.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.Get(ctx, ord.ID, "buyer-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
