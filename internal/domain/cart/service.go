package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ovenfresh/bakery-api/internal/domain/product"
)

// ViewItem is a cart line joined with its current product state. Quantity is
// capped at the product's current stock.
type ViewItem struct {
	Product  product.Product
	Quantity decimal.Decimal
}

// View is the validated, priced contents of a cart. Items that became
// unavailable since they were added are dropped from the view but kept in
// storage, so they reappear if the product comes back.
type View struct {
	Items []ViewItem
	Total decimal.Decimal
}

// SetQuantityResult reports what a SetQuantity call did to the cart line.
type SetQuantityResult struct {
	// Removed is true when the line was deleted, either because the requested
	// quantity was zero or the product became unavailable mid-session.
	Removed bool
	// Quantity is the final stored quantity when the line survives.
	Quantity decimal.Decimal
}

// Service validates cart mutations against current catalog availability.
type Service struct {
	carts    Repository
	products product.Repository
}

// NewService creates a cart Service backed by the given repositories.
func NewService(carts Repository, products product.Repository) *Service {
	return &Service{carts: carts, products: products}
}

// Get returns the cart filtered to currently purchasable products, with each
// quantity capped at current stock and the total computed over valid items
// only. It is read-only: caps are not persisted and unavailable items are
// not deleted from storage.
func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}

	view := &View{Items: []ViewItem{}, Total: decimal.Zero}
	for _, item := range c.Items {
		p, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				continue
			}
			return nil, errors.Wrapf(err, "get product %s", item.ProductID)
		}
		if !p.Purchasable() {
			continue
		}

		qty := decimal.Min(item.Quantity, p.Quantity)
		view.Items = append(view.Items, ViewItem{Product: *p, Quantity: qty})
		view.Total = view.Total.Add(p.Price.Mul(qty))
	}
	return view, nil
}

// Add upserts a cart line. The new total quantity (existing + requested) must
// not exceed current stock; otherwise an OutOfStockError reporting the
// available quantity and unit is returned. It returns the resulting stored
// quantity for the product.
func (s *Service) Add(ctx context.Context, userID, productID string, qty decimal.Decimal) (decimal.Decimal, error) {
	if !qty.IsPositive() {
		qty = decimal.NewFromInt(1)
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if p.Blocked || p.Status != product.StatusAvailable {
		return decimal.Zero, ErrUnavailable
	}

	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "get cart")
	}

	inCart := decimal.Zero
	idx := -1
	for i, item := range c.Items {
		if item.ProductID == productID {
			inCart = item.Quantity
			idx = i
			break
		}
	}

	newTotal := inCart.Add(qty)
	if newTotal.GreaterThan(p.Quantity) {
		return decimal.Zero, &OutOfStockError{
			ProductID: productID,
			Available: p.Quantity,
			InCart:    inCart,
			Unit:      p.Unit,
		}
	}

	if idx >= 0 {
		c.Items[idx].Quantity = newTotal
	} else {
		c.Items = append(c.Items, Item{ProductID: productID, Quantity: newTotal})
	}
	if err := s.carts.Put(ctx, c); err != nil {
		return decimal.Zero, errors.Wrap(err, "save cart")
	}
	return newTotal, nil
}

// SetQuantity replaces a cart line's quantity. A non-positive quantity
// removes the line. When the product became unavailable mid-session the line
// is removed and the result reports Removed. A quantity above current stock
// fails with OutOfStockError without modifying the cart.
func (s *Service) SetQuantity(ctx context.Context, userID, productID string, qty decimal.Decimal) (*SetQuantityResult, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}

	idx := -1
	for i, item := range c.Items {
		if item.ProductID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrItemNotInCart
	}

	if !qty.IsPositive() {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		if err := s.carts.Put(ctx, c); err != nil {
			return nil, errors.Wrap(err, "save cart")
		}
		return &SetQuantityResult{Removed: true}, nil
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil && !errors.Is(err, product.ErrNotFound) {
		return nil, errors.Wrapf(err, "get product %s", productID)
	}
	if err != nil || !p.Purchasable() {
		// Product vanished or became unavailable: drop the line.
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		if err := s.carts.Put(ctx, c); err != nil {
			return nil, errors.Wrap(err, "save cart")
		}
		return &SetQuantityResult{Removed: true}, nil
	}

	if qty.GreaterThan(p.Quantity) {
		return nil, &OutOfStockError{
			ProductID: productID,
			Available: p.Quantity,
			Unit:      p.Unit,
		}
	}

	c.Items[idx].Quantity = qty
	if err := s.carts.Put(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return &SetQuantityResult{Quantity: qty}, nil
}

// Remove deletes a single product line from the cart.
func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "get cart")
	}
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return errors.Wrap(s.carts.Put(ctx, c), "save cart")
		}
	}
	return ErrItemNotInCart
}

// Clear empties the user's cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.carts.Clear(ctx, userID)
}
