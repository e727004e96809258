package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/ovenfresh/bakery-api/internal/domain/product"
	"github.com/ovenfresh/bakery-api/internal/domain/review"
)

// SubmitReview appends a rating to a product, gated on the user having a
// delivered order containing it and not having reviewed it before.
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	rv, err := h.reviews.Submit(r.Context(), userID(r), review.SubmitRequest{
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, review.ErrInvalidRating), errors.Is(err, review.ErrCommentTooLong):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, review.ErrNotPurchased):
			writeError(w, http.StatusForbidden, "Please purchase and receive this product before reviewing.")
		case errors.Is(err, review.ErrAlreadyReviewed):
			writeError(w, http.StatusConflict, "You have already reviewed this product.")
		case errors.Is(err, product.ErrNotFound):
			writeError(w, http.StatusNotFound, "Product not found")
		default:
			internalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Review submitted successfully!",
		"review": reviewResponse{
			UserName:  rv.UserName,
			Rating:    rv.Rating,
			Comment:   rv.Comment,
			CreatedAt: rv.CreatedAt,
		},
	})
}
