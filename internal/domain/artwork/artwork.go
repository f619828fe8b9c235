package artwork

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound    = errors.New("artwork: not found")
	ErrUnavailable = errors.New("artwork: not available for purchase")
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusSold      Status = "sold"
	StatusArchived  Status = "archived"
)

type Artwork struct {
	ID        string
	ArtistID  string
	Title     string
	Price     decimal.Decimal
	Available bool
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Purchasable reports whether the artwork can still be put into an order.
func (a *Artwork) Purchasable() bool {
	return a.Available && a.Status == StatusApproved
}

// MarkSold makes the artwork unavailable and flips its status to sold.
// Marking an already-sold artwork sold again is a no-op, which keeps
// fulfillment safe to repeat.
func (a *Artwork) MarkSold() {
	if !a.Available && a.Status == StatusSold {
		return
	}
	a.Available = false
	a.Status = StatusSold
	a.touch()
}

func (a *Artwork) touch() {
	a.UpdatedAt = time.Now().UTC()
}

func (a *Artwork) Clone() *Artwork {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}
