package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound   = errors.New("order: not found")
	ErrConflict   = errors.New("order: already exists")
	ErrNotOwned   = errors.New("order: does not belong to user")
	ErrNotPayable = errors.New("order: not awaiting payment")
	ErrNoItems    = errors.New("order: at least one item is required")
)

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusPaid           Status = "paid"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
	StatusRefunded       Status = "refunded"
)

// Item snapshots the artwork price at order time so later price edits do not
// change what the buyer owes.
type Item struct {
	ArtworkID string
	Price     decimal.Decimal
	Quantity  int
}

type Order struct {
	ID               string
	Number           string
	BuyerID          string
	Status           Status
	PaymentReference string
	Subtotal         decimal.Decimal
	ShippingFee      decimal.Decimal
	Total            decimal.Decimal
	Items            []Item
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func New(id, number, buyerID string, items []Item, shippingFee decimal.Decimal) (*Order, error) {
	if buyerID == "" {
		return nil, errors.New("order: buyer id is required")
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	subtotal := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, errors.New("order: item quantity must be greater than zero")
		}
		subtotal = subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	now := time.Now().UTC()
	return &Order{
		ID:          id,
		Number:      number,
		BuyerID:     buyerID,
		Status:      StatusPendingPayment,
		Subtotal:    subtotal,
		ShippingFee: shippingFee,
		Total:       subtotal.Add(shippingFee),
		Items:       items,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Payable reports whether a payment may be initiated for this order.
func (o *Order) Payable() bool {
	return o.Status == StatusPendingPayment
}

// MarkPaid flips the order to paid and stamps the gateway reference.
// Calling it again with the same reference is a safe no-op so fulfillment
// can be re-run after a partial failure.
func (o *Order) MarkPaid(paymentReference string) {
	if o.Status == StatusPaid && o.PaymentReference == paymentReference {
		return
	}
	o.Status = StatusPaid
	o.PaymentReference = paymentReference
	o.touch()
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	return &clone
}
