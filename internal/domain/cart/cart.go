package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ovenfresh/bakery-api/internal/domain/product"
)

var (
	// ErrUnavailable is returned when a product is blocked or marked
	// not-available and cannot be added to a cart.
	ErrUnavailable = errors.New("product is not available for purchase")
	// ErrItemNotInCart is returned when updating or removing a product the
	// cart does not contain.
	ErrItemNotInCart = errors.New("item not in cart")
)

// OutOfStockError indicates a requested cart quantity exceeds current stock.
// It carries the available quantity and unit so callers can render specific
// guidance instead of a generic error.
type OutOfStockError struct {
	ProductID string
	Available decimal.Decimal
	InCart    decimal.Decimal
	Unit      product.Unit
}

func (e *OutOfStockError) Error() string {
	return "cannot add more items: only " + e.Available.String() + " " + string(e.Unit) + " available"
}

// Item is a stored cart line: a product reference and the desired quantity.
type Item struct {
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// Cart maps one user to their stored items. Quantities are validated lazily
// against the catalog at read and write time, not as a stored constraint.
type Cart struct {
	UserID string
	Items  []Item
}

// Repository defines persistence operations for carts. One cart per user;
// Get returns an empty cart when none has been stored yet.
type Repository interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Put(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, userID string) error
}
