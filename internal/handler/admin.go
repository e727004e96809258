package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ovenfresh/bakery-api/internal/domain/category"
	"github.com/ovenfresh/bakery-api/internal/domain/order"
	"github.com/ovenfresh/bakery-api/internal/domain/product"
	"github.com/ovenfresh/bakery-api/internal/domain/user"
)

// --- Products ---

type adminProductPayload struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	Status      string          `json:"status"`
	Offer       decimal.Decimal `json:"productOffer"`
	CategoryID  string          `json:"category"`
	Images      []string        `json:"images"`
}

func (p adminProductPayload) validate() string {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return "name is required"
	case !p.Price.IsPositive():
		return "price must be greater than 0"
	case p.Quantity.IsNegative():
		return "quantity must not be negative"
	case !product.ValidUnit(product.Unit(p.Unit)):
		return "unit must be one of kg, litre, pcs, packet"
	case p.Offer.IsNegative() || p.Offer.GreaterThan(decimal.NewFromInt(100)):
		return "productOffer must be between 0 and 100"
	case p.CategoryID == "":
		return "category is required"
	}
	if p.Status != "" && p.Status != string(product.StatusAvailable) && p.Status != string(product.StatusNotAvailable) {
		return "status must be available or not-available"
	}
	return ""
}

// AdminListProducts returns every product including blocked ones. An id
// query parameter narrows the listing to a single product.
func (h *Handler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		p, err := h.products.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Product not found")
				return
			}
			internalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, h.toProductResponse(*p))
		return
	}

	products, err := h.products.List(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toProductResponses(products))
}

// AdminCreateProduct adds a catalog item.
func (h *Handler) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req adminProductPayload
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	status := product.Status(req.Status)
	if req.Status == "" {
		status = product.StatusAvailable
	}
	p := &product.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Unit:        product.Unit(req.Unit),
		Status:      status,
		Offer:       req.Offer,
		CategoryID:  req.CategoryID,
		Images:      req.Images,
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Product created successfully",
		"product": h.toProductResponse(*p),
	})
}

// AdminUpdateProduct rewrites a product's editable fields.
func (h *Handler) AdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req adminProductPayload
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := h.products.GetByID(r.Context(), req.ID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		internalError(w, r, err)
		return
	}

	existing.Name = strings.TrimSpace(req.Name)
	existing.Description = req.Description
	existing.Price = req.Price
	existing.Quantity = req.Quantity
	existing.Unit = product.Unit(req.Unit)
	if req.Status != "" {
		existing.Status = product.Status(req.Status)
	}
	existing.Offer = req.Offer
	existing.CategoryID = req.CategoryID
	if len(req.Images) > 0 {
		existing.Images = req.Images
	}

	if err := h.products.Update(r.Context(), existing); err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Product updated successfully",
		"product": h.toProductResponse(*existing),
	})
}

// AdminBlockProduct toggles the block override on a product.
func (h *Handler) AdminBlockProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID      string `json:"id"`
		Blocked bool   `json:"blocked"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	if err := h.products.SetBlocked(r.Context(), req.ID, req.Blocked); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "blocked": req.Blocked})
}

// AdminDeleteProduct removes a product from the catalog.
func (h *Handler) AdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.products.Delete(r.Context(), req.ID); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Product deleted successfully"})
}

// --- Categories ---

// AdminListCategories returns all categories.
func (h *Handler) AdminListCategories(w http.ResponseWriter, r *http.Request) {
	h.ListCategories(w, r)
}

// AdminCreateCategory adds a category with a unique name.
func (h *Handler) AdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Category name is required")
		return
	}

	c := &category.Category{Name: name, Description: req.Description}
	if err := h.categories.Create(r.Context(), c); err != nil {
		if errors.Is(err, category.ErrDuplicateName) {
			writeError(w, http.StatusBadRequest, "Category name must be unique")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Category created successfully",
		"category": toCategoryResponse(*c),
	})
}

// AdminUpdateCategory renames a category.
func (h *Handler) AdminUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Category name is required")
		return
	}

	c := &category.Category{ID: req.ID, Name: name, Description: req.Description}
	if err := h.categories.Update(r.Context(), c); err != nil {
		switch {
		case errors.Is(err, category.ErrDuplicateName):
			writeError(w, http.StatusBadRequest, "Category already exists")
		case errors.Is(err, category.ErrNotFound):
			writeError(w, http.StatusNotFound, "Category not found")
		default:
			internalError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Category updated successfully"})
}

// AdminDeleteCategory removes a category.
func (h *Handler) AdminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.categories.Delete(r.Context(), req.ID); err != nil {
		if errors.Is(err, category.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Category not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Category deleted successfully"})
}

// --- Orders ---

// AdminListOrders returns every order across users, newest first.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderRepo.List(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// AdminUpdateOrderStatus moves an order along the status graph. Transitions
// are restricted: an order cannot leave a terminal state and cannot skip
// backwards.
func (h *Handler) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"orderId"`
		Status  string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	next := order.Status(req.Status)
	if !order.ValidStatus(next) {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	o, err := h.orderRepo.Get(r.Context(), req.OrderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		internalError(w, r, err)
		return
	}
	if !o.Status.CanTransitionTo(next) {
		writeError(w, http.StatusBadRequest,
			"Cannot change status from "+string(o.Status)+" to "+string(next))
		return
	}

	if err := h.orderRepo.UpdateStatus(r.Context(), req.OrderID, next); err != nil {
		internalError(w, r, err)
		return
	}
	o.Status = next
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// --- Users ---

type adminUserResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Blocked bool   `json:"isblocked"`
}

// AdminListUsers returns all storefront accounts.
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	out := make([]adminUserResponse, len(users))
	for i, u := range users {
		out[i] = adminUserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Blocked: u.Blocked}
	}
	writeJSON(w, http.StatusOK, out)
}

// AdminBlockUser toggles the account block flag.
func (h *Handler) AdminBlockUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"userId"`
		Blocked bool   `json:"isblocked"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := h.users.SetBlocked(r.Context(), req.UserID, req.Blocked); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "isblocked": req.Blocked})
}
