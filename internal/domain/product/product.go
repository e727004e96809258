package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned by a conditional stock decrement when
	// the remaining quantity would drop below zero. The conditional update IS
	// the stock check: callers must treat a no-op decrement as out-of-stock.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Unit enumerates how a product's quantity is measured.
type Unit string

const (
	UnitKg     Unit = "kg"
	UnitLitre  Unit = "litre"
	UnitPiece  Unit = "pcs"
	UnitPacket Unit = "packet"
)

// ValidUnit reports whether u is one of the supported units.
func ValidUnit(u Unit) bool {
	switch u {
	case UnitKg, UnitLitre, UnitPiece, UnitPacket:
		return true
	}
	return false
}

// Status enumerates a product's availability state set by the admin.
type Status string

const (
	StatusAvailable    Status = "available"
	StatusNotAvailable Status = "not-available"
)

// Review is a customer rating appended to a product. UserName is a snapshot
// of the reviewer's display name at write time; later profile renames do not
// propagate. OrderID records which delivered order authorized the review.
type Review struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	OrderID   string    `json:"orderId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Product represents a catalog item available for purchase. Quantity is the
// current stock and may be fractional for weight and volume units.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    decimal.Decimal
	Unit        Unit
	Status      Status
	Blocked     bool
	Offer       decimal.Decimal // percentage discount, 0-100
	CategoryID  string
	Images      []string
	Reviews     []Review
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Purchasable reports whether the product can currently be bought: it must
// be in the available status, not blocked by an admin, and have stock left.
func (p *Product) Purchasable() bool {
	return p.Status == StatusAvailable && !p.Blocked && p.Quantity.IsPositive()
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	ListUnblocked(ctx context.Context) ([]Product, error)
	ListByCategory(ctx context.Context, categoryID string) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)

	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	SetBlocked(ctx context.Context, id string, blocked bool) error

	// RestoreStock adds qty back to the product's quantity. Stock is only
	// decremented inside the order placement transaction (see order.Repository)
	// and restored here on item cancellation.
	RestoreStock(ctx context.Context, id string, qty decimal.Decimal) error

	// AddReview appends a review to the product's embedded review list.
	AddReview(ctx context.Context, id string, review Review) error
	// HasReviewBy reports whether the user already reviewed the product.
	HasReviewBy(ctx context.Context, id, userID string) (bool, error)
}
