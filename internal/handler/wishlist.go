package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/ovenfresh/bakery-api/internal/domain/product"
	"github.com/ovenfresh/bakery-api/internal/domain/user"
)

// ListWishlist returns the user's wishlisted products, filtered to what is
// currently purchasable.
func (h *Handler) ListWishlist(w http.ResponseWriter, r *http.Request) {
	products, err := h.wishlist.List(r.Context(), userID(r))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toProductResponses(products))
}

type wishlistRequest struct {
	ProductID string `json:"productId"`
}

// AddToWishlist adds a product to the user's wishlist set.
func (h *Handler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishlistRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	if err := h.wishlist.Add(r.Context(), userID(r), req.ProductID); err != nil {
		h.wishlistError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Added to wishlist"})
}

// RemoveFromWishlist drops a product from the user's wishlist set.
func (h *Handler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishlistRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	if err := h.wishlist.Remove(r.Context(), userID(r), req.ProductID); err != nil {
		h.wishlistError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Removed from wishlist"})
}

func (h *Handler) wishlistError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, user.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	default:
		internalError(w, r, err)
	}
}
