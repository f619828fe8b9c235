package postgres

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hangart/hangart/internal/domain/artwork"
	"github.com/hangart/hangart/internal/domain/order"
	"github.com/hangart/hangart/internal/domain/payment"
)

type paymentRow struct {
	ID               string          `gorm:"primaryKey;size:36"`
	OrderID          string          `gorm:"uniqueIndex;size:36;not null"`
	UserID           string          `gorm:"index;size:36;not null"`
	Method           string          `gorm:"size:16;not null"`
	Amount           decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Reference        string          `gorm:"uniqueIndex;size:32;not null"`
	GatewayReference string          `gorm:"index;size:64"`
	ProviderResponse []byte          `gorm:"type:jsonb"`
	Status           string          `gorm:"size:16;not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (paymentRow) TableName() string { return "payment_transactions" }

func paymentFromDomain(t *payment.Transaction) *paymentRow {
	return &paymentRow{
		ID:               t.ID,
		OrderID:          t.OrderID,
		UserID:           t.UserID,
		Method:           string(t.Method),
		Amount:           t.Amount,
		Reference:        t.Reference,
		GatewayReference: t.GatewayReference,
		ProviderResponse: t.ProviderResponse,
		Status:           string(t.Status),
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func (r *paymentRow) toDomain() *payment.Transaction {
	return &payment.Transaction{
		ID:               r.ID,
		OrderID:          r.OrderID,
		UserID:           r.UserID,
		Method:           payment.Method(r.Method),
		Amount:           r.Amount,
		Reference:        r.Reference,
		GatewayReference: r.GatewayReference,
		ProviderResponse: json.RawMessage(r.ProviderResponse),
		Status:           payment.Status(r.Status),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type eventRow struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	TransactionID string `gorm:"index;size:36;not null"`
	Kind          string `gorm:"size:32;not null"`
	Message       string `gorm:"type:text"`
	CreatedAt     time.Time
}

func (eventRow) TableName() string { return "transaction_events" }

func (r *eventRow) toDomain() payment.Event {
	return payment.Event{
		ID:            r.ID,
		TransactionID: r.TransactionID,
		Kind:          payment.EventKind(r.Kind),
		Message:       r.Message,
		CreatedAt:     r.CreatedAt,
	}
}

type orderRow struct {
	ID               string          `gorm:"primaryKey;size:36"`
	Number           string          `gorm:"uniqueIndex;size:20;not null"`
	BuyerID          string          `gorm:"index;size:36;not null"`
	Status           string          `gorm:"size:24;not null"`
	PaymentReference string          `gorm:"size:64"`
	Subtotal         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ShippingFee      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Total            decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Items            []orderItemRow  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (orderRow) TableName() string { return "orders" }

type orderItemRow struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	OrderID   string          `gorm:"index;size:36;not null"`
	ArtworkID string          `gorm:"size:36;not null"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Quantity  int             `gorm:"not null"`
}

func (orderItemRow) TableName() string { return "order_items" }

func orderFromDomain(o *order.Order) *orderRow {
	items := make([]orderItemRow, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemRow{
			OrderID:   o.ID,
			ArtworkID: it.ArtworkID,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return &orderRow{
		ID:               o.ID,
		Number:           o.Number,
		BuyerID:          o.BuyerID,
		Status:           string(o.Status),
		PaymentReference: o.PaymentReference,
		Subtotal:         o.Subtotal,
		ShippingFee:      o.ShippingFee,
		Total:            o.Total,
		Items:            items,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func (r *orderRow) toDomain() *order.Order {
	items := make([]order.Item, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, order.Item{
			ArtworkID: it.ArtworkID,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return &order.Order{
		ID:               r.ID,
		Number:           r.Number,
		BuyerID:          r.BuyerID,
		Status:           order.Status(r.Status),
		PaymentReference: r.PaymentReference,
		Subtotal:         r.Subtotal,
		ShippingFee:      r.ShippingFee,
		Total:            r.Total,
		Items:            items,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type artworkRow struct {
	ID        string          `gorm:"primaryKey;size:36"`
	ArtistID  string          `gorm:"index;size:36;not null"`
	Title     string          `gorm:"size:255;not null"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Available bool            `gorm:"not null"`
	Status    string          `gorm:"size:16;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (artworkRow) TableName() string { return "artworks" }

func artworkFromDomain(a *artwork.Artwork) *artworkRow {
	return &artworkRow{
		ID:        a.ID,
		ArtistID:  a.ArtistID,
		Title:     a.Title,
		Price:     a.Price,
		Available: a.Available,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (r *artworkRow) toDomain() *artwork.Artwork {
	return &artwork.Artwork{
		ID:        r.ID,
		ArtistID:  r.ArtistID,
		Title:     r.Title,
		Price:     r.Price,
		Available: r.Available,
		Status:    artwork.Status(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
