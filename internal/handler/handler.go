// Package handler exposes the storefront and back-office HTTP JSON API.
// Every failure is converted to a {"error": ...} body at this boundary; no
// internal error detail crosses into responses.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/ovenfresh/bakery-api/internal/domain/address"
	"github.com/ovenfresh/bakery-api/internal/domain/cart"
	"github.com/ovenfresh/bakery-api/internal/domain/category"
	"github.com/ovenfresh/bakery-api/internal/domain/order"
	"github.com/ovenfresh/bakery-api/internal/domain/payment"
	"github.com/ovenfresh/bakery-api/internal/domain/product"
	"github.com/ovenfresh/bakery-api/internal/domain/review"
	"github.com/ovenfresh/bakery-api/internal/domain/user"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
	// AdminAPIKey guards the /admin routes. See SecurityHandler.
	AdminAPIKey string
}

// Handler wires the domain services to HTTP routes.
type Handler struct {
	carts      *cart.Service
	orders     *order.Service
	reviews    *review.Service
	wishlist   *user.WishlistService
	gateway    payment.Gateway
	products   product.Repository
	categories category.Repository
	users      user.Repository
	addresses  address.Repository
	orderRepo  order.Repository

	imageBaseURL string
	security     *SecurityHandler
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	carts *cart.Service,
	orders *order.Service,
	reviews *review.Service,
	wishlist *user.WishlistService,
	gateway payment.Gateway,
	products product.Repository,
	categories category.Repository,
	users user.Repository,
	addresses address.Repository,
	orderRepo order.Repository,
) *Handler {
	return &Handler{
		carts:        carts,
		orders:       orders,
		reviews:      reviews,
		wishlist:     wishlist,
		gateway:      gateway,
		products:     products,
		categories:   categories,
		users:        users,
		addresses:    addresses,
		orderRepo:    orderRepo,
		imageBaseURL: cfg.ImageBaseURL,
		security:     NewSecurityHandler([]byte(cfg.AdminAPIKey)),
	}
}

// Routes registers every API route on a fresh mux. Storefront routes require
// a verified user identity; /admin routes require the admin API key.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Public catalog.
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /api/categories", h.ListCategories)

	// Storefront (authenticated user).
	u := h.requireUser
	mux.HandleFunc("GET /api/cart", u(h.GetCart))
	mux.HandleFunc("POST /api/cart", u(h.AddToCart))
	mux.HandleFunc("PUT /api/cart", u(h.UpdateCartQuantity))
	mux.HandleFunc("DELETE /api/cart", u(h.RemoveFromCart))

	mux.HandleFunc("POST /api/orders", u(h.PlaceOrder))
	mux.HandleFunc("GET /api/orders", u(h.ListOrders))
	mux.HandleFunc("GET /api/orders/{orderId}", u(h.GetOrder))
	mux.HandleFunc("POST /api/orders/{orderId}", u(h.CancelOrderItem))

	mux.HandleFunc("POST /api/payment/order", u(h.CreateGatewayOrder))
	mux.HandleFunc("POST /api/payment/verify", u(h.VerifyPayment))

	mux.HandleFunc("POST /api/reviews", u(h.SubmitReview))

	mux.HandleFunc("GET /api/wishlist", u(h.ListWishlist))
	mux.HandleFunc("POST /api/wishlist", u(h.AddToWishlist))
	mux.HandleFunc("DELETE /api/wishlist", u(h.RemoveFromWishlist))

	mux.HandleFunc("GET /api/addresses", u(h.ListAddresses))
	mux.HandleFunc("POST /api/addresses", u(h.CreateAddress))
	mux.HandleFunc("PUT /api/addresses/{id}", u(h.UpdateAddress))
	mux.HandleFunc("DELETE /api/addresses/{id}", u(h.DeleteAddress))

	// Back-office (admin API key).
	a := h.security.Require
	mux.HandleFunc("GET /api/admin/products", a(h.AdminListProducts))
	mux.HandleFunc("POST /api/admin/products", a(h.AdminCreateProduct))
	mux.HandleFunc("PUT /api/admin/products", a(h.AdminUpdateProduct))
	mux.HandleFunc("PATCH /api/admin/products", a(h.AdminBlockProduct))
	mux.HandleFunc("DELETE /api/admin/products", a(h.AdminDeleteProduct))

	mux.HandleFunc("GET /api/admin/category", a(h.AdminListCategories))
	mux.HandleFunc("POST /api/admin/category", a(h.AdminCreateCategory))
	mux.HandleFunc("PUT /api/admin/category", a(h.AdminUpdateCategory))
	mux.HandleFunc("DELETE /api/admin/category", a(h.AdminDeleteCategory))

	mux.HandleFunc("GET /api/admin/orders", a(h.AdminListOrders))
	mux.HandleFunc("PATCH /api/admin/orders", a(h.AdminUpdateOrderStatus))

	mux.HandleFunc("GET /api/admin/userlist", a(h.AdminListUsers))
	mux.HandleFunc("POST /api/admin/userlist", a(h.AdminBlockUser))

	return mux
}

// userIDHeader carries the verified user identity. Session issuance and
// verification are external to this service; an upstream auth layer is
// trusted to set this header.
const userIDHeader = "X-User-ID"

// requireUser rejects requests without a verified user identity and passes
// the user id to the wrapped handler via the request header contract.
func (h *Handler) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(userIDHeader) == "" {
			writeError(w, http.StatusUnauthorized, "Please login first")
			return
		}
		next(w, r)
	}
}

func userID(r *http.Request) string {
	return r.Header.Get(userIDHeader)
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a plain {"error": msg} body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody parses the request body into v, returning false after writing
// a 400 response when the body is malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// decodeSilent parses the request body into v, treating an absent or
// malformed body as empty input instead of an error.
func decodeSilent(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// internalError logs err server-side and responds with a generic 500.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "something went wrong")
}
