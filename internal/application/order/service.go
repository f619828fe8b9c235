package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domartwork "github.com/hangart/hangart/internal/domain/artwork"
	domain "github.com/hangart/hangart/internal/domain/order"
	"github.com/hangart/hangart/internal/observability"
	"github.com/hangart/hangart/internal/observability/logctx"
)

const componentOrderService = "order_service"

// Service creates and reads orders. Prices are snapshotted from the artwork
// catalog at creation time; later price edits never change an open order.
type Service struct {
	orders   domain.Repository
	artworks domartwork.Repository
	log      observability.Logger
	tel      observability.Telemetry
}

func NewService(
	orders domain.Repository,
	artworks domartwork.Repository,
	logger observability.Logger,
	tel observability.Telemetry,
) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Service{
		orders:   orders,
		artworks: artworks,
		log:      logger.With(observability.F("component", componentOrderService)),
		tel:      tel,
	}
}

type CreateItemInput struct {
	ArtworkID string
	Quantity  int
}

type CreateInput struct {
	BuyerID     string
	Items       []CreateItemInput
	ShippingFee decimal.Decimal
}

// Create builds an order from purchasable artworks. Every referenced artwork
// must still be approved and available; a single unavailable piece rejects
// the whole order so the buyer never pays for something that cannot ship.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, domain.ErrNoItems
	}

	items := make([]domain.Item, 0, len(input.Items))
	for _, in := range input.Items {
		art, err := s.artworks.Get(ctx, in.ArtworkID)
		if err != nil {
			return nil, err
		}
		if !art.Purchasable() {
			return nil, fmt.Errorf("%w: %s", domartwork.ErrUnavailable, art.ID)
		}
		qty := in.Quantity
		if qty == 0 {
			qty = 1
		}
		items = append(items, domain.Item{
			ArtworkID: art.ID,
			Price:     art.Price,
			Quantity:  qty,
		})
	}

	ord, err := domain.New(uuid.NewString(), newOrderNumber(), input.BuyerID, items, input.ShippingFee)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Insert(ctx, ord); err != nil {
		return nil, err
	}

	logctx.FromOr(ctx, s.log).Info("order_created",
		observability.F("order_id", ord.ID),
		observability.F("order_number", ord.Number),
		observability.F("buyer_id", ord.BuyerID),
		observability.F("total", ord.Total.String()),
	)
	return ord, nil
}

// Get returns an order, restricted to its buyer. An order that exists but
// belongs to someone else is reported as not found rather than forbidden so
// order ids are not probeable.
func (s *Service) Get(ctx context.Context, id, buyerID string) (*domain.Order, error) {
	ord, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if buyerID != "" && ord.BuyerID != buyerID {
		return nil, domain.ErrNotFound
	}
	return ord, nil
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
