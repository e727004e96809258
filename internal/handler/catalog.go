package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/ovenfresh/bakery-api/internal/domain/category"
	"github.com/ovenfresh/bakery-api/internal/domain/product"
)

type reviewResponse struct {
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type productResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Price       float64          `json:"price"`
	Quantity    float64          `json:"quantity"`
	Unit        string           `json:"unit"`
	Status      string           `json:"status"`
	Blocked     bool             `json:"blocked"`
	Offer       float64          `json:"productOffer"`
	CategoryID  string           `json:"categoryId"`
	Images      []string         `json:"images"`
	Reviews     []reviewResponse `json:"reviews"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// toProductResponse converts a domain product to its API shape, prefixing
// relative image paths with the configured image base URL.
func (h *Handler) toProductResponse(p product.Product) productResponse {
	images := make([]string, len(p.Images))
	for i, img := range p.Images {
		if h.imageBaseURL != "" && !strings.HasPrefix(img, "http") {
			img = h.imageBaseURL + img
		}
		images[i] = img
	}
	reviews := make([]reviewResponse, len(p.Reviews))
	for i, rv := range p.Reviews {
		reviews[i] = reviewResponse{
			UserName:  rv.UserName,
			Rating:    rv.Rating,
			Comment:   rv.Comment,
			CreatedAt: rv.CreatedAt,
		}
	}
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Quantity:    p.Quantity.InexactFloat64(),
		Unit:        string(p.Unit),
		Status:      string(p.Status),
		Blocked:     p.Blocked,
		Offer:       p.Offer.InexactFloat64(),
		CategoryID:  p.CategoryID,
		Images:      images,
		Reviews:     reviews,
		CreatedAt:   p.CreatedAt,
	}
}

func (h *Handler) toProductResponses(products []product.Product) []productResponse {
	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = h.toProductResponse(p)
	}
	return out
}

// ListProducts returns the public catalog: blocked products excluded. An
// optional category query parameter narrows the listing.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []product.Product
		err      error
	)
	if categoryID := r.URL.Query().Get("category"); categoryID != "" {
		products, err = h.products.ListByCategory(r.Context(), categoryID)
	} else {
		products, err = h.products.ListUnblocked(r.Context())
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toProductResponses(products))
}

// GetProduct returns a single product by id.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toProductResponse(*p))
}

type categoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Blocked     bool   `json:"blocked"`
}

func toCategoryResponse(c category.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Blocked:     c.Blocked,
	}
}

// ListCategories returns all categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.List(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	out := make([]categoryResponse, len(cats))
	for i, c := range cats {
		out[i] = toCategoryResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}
