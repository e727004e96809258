package user

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/ovenfresh/bakery-api/internal/domain/product"
)

// WishlistService exposes the per-user wishlist: a set of product ids with
// the same read-time availability filtering as the cart.
type WishlistService struct {
	users    Repository
	products product.Repository
}

// NewWishlistService creates a WishlistService.
func NewWishlistService(users Repository, products product.Repository) *WishlistService {
	return &WishlistService{users: users, products: products}
}

// List returns the wishlisted products that are currently purchasable.
// Products that vanished or became unavailable are silently dropped from
// the response, not removed from the stored set.
func (s *WishlistService) List(ctx context.Context, userID string) ([]product.Product, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]product.Product, 0, len(u.Wishlist))
	for _, id := range u.Wishlist {
		p, err := s.products.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				continue
			}
			return nil, errors.Wrapf(err, "get product %s", id)
		}
		if !p.Purchasable() {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

// Add puts a product id into the user's wishlist set. Adding an id twice is
// a no-op. The product must exist.
func (s *WishlistService) Add(ctx context.Context, userID, productID string) error {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return err
	}
	return s.users.AddToWishlist(ctx, userID, productID)
}

// Remove deletes a product id from the wishlist set.
func (s *WishlistService) Remove(ctx context.Context, userID, productID string) error {
	return s.users.RemoveFromWishlist(ctx, userID, productID)
}
