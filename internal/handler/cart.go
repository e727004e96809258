package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ovenfresh/bakery-api/internal/domain/cart"
	"github.com/ovenfresh/bakery-api/internal/domain/product"
)

type cartItemResponse struct {
	Product  productResponse `json:"product"`
	Quantity float64         `json:"quantity"`
}

type cartResponse struct {
	Items []cartItemResponse `json:"items"`
	Total float64            `json:"total"`
}

// GetCart returns the validated cart: unavailable items dropped, quantities
// capped at current stock.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.Get(r.Context(), userID(r))
	if err != nil {
		internalError(w, r, err)
		return
	}

	items := make([]cartItemResponse, len(view.Items))
	for i, it := range view.Items {
		items[i] = cartItemResponse{
			Product:  h.toProductResponse(it.Product),
			Quantity: it.Quantity.InexactFloat64(),
		}
	}
	writeJSON(w, http.StatusOK, cartResponse{Items: items, Total: view.Total.InexactFloat64()})
}

type cartMutationRequest struct {
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// AddToCart upserts a cart line, enforcing current stock limits.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartMutationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	current, err := h.carts.Add(r.Context(), userID(r), req.ProductID, req.Quantity)
	if err != nil {
		h.cartError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         "Added to cart",
		"currentQuantity": current.InexactFloat64(),
	})
}

// UpdateCartQuantity replaces a line's quantity; zero removes the line.
func (h *Handler) UpdateCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req cartMutationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	result, err := h.carts.SetQuantity(r.Context(), userID(r), req.ProductID, req.Quantity)
	if err != nil {
		h.cartError(w, r, err)
		return
	}
	if result.Removed {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Item removed",
			"removed": true,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Quantity updated",
	})
}

// RemoveFromCart removes one line when a productId is supplied, or clears
// the whole cart otherwise.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
	}
	// An absent or empty body means "clear the cart".
	_ = decodeSilent(r, &req)

	if req.ProductID == "" {
		if err := h.carts.Clear(r.Context(), userID(r)); err != nil {
			internalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Cart cleared successfully",
		})
		return
	}

	if err := h.carts.Remove(r.Context(), userID(r), req.ProductID); err != nil {
		h.cartError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Product removed from cart",
	})
}

// cartError maps cart domain errors onto HTTP responses.
func (h *Handler) cartError(w http.ResponseWriter, r *http.Request, err error) {
	var oos *cart.OutOfStockError
	switch {
	case errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, cart.ErrUnavailable):
		writeError(w, http.StatusBadRequest, "Product is not available for purchase")
	case errors.Is(err, cart.ErrItemNotInCart):
		writeError(w, http.StatusNotFound, "Item not in cart")
	case errors.As(err, &oos):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":             "Cannot add more items",
			"status":            "OUT_OF_STOCK",
			"availableQuantity": oos.Available.InexactFloat64(),
			"currentCartQty":    oos.InCart.InexactFloat64(),
			"unit":              string(oos.Unit),
		})
	default:
		internalError(w, r, err)
	}
}
