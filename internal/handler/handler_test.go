package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenfresh/bakery-api/internal/domain/address"
	"github.com/ovenfresh/bakery-api/internal/domain/cart"
	"github.com/ovenfresh/bakery-api/internal/domain/category"
	"github.com/ovenfresh/bakery-api/internal/domain/order"
	"github.com/ovenfresh/bakery-api/internal/domain/payment"
	"github.com/ovenfresh/bakery-api/internal/domain/product"
	"github.com/ovenfresh/bakery-api/internal/domain/review"
	"github.com/ovenfresh/bakery-api/internal/domain/user"
)

const testAdminKey = "test-admin-key"

// --- Mock implementations ---

type mockProductRepo struct {
	byID map[string]*product.Product
}

func (m *mockProductRepo) list() []product.Product {
	out := make([]product.Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, *p)
	}
	return out
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return m.list(), nil
}

func (m *mockProductRepo) ListUnblocked(_ context.Context) ([]product.Product, error) {
	out := []product.Product{}
	for _, p := range m.list() {
		if !p.Blocked {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) ListByCategory(_ context.Context, categoryID string) ([]product.Product, error) {
	out := []product.Product{}
	for _, p := range m.list() {
		if !p.Blocked && p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) Create(_ context.Context, p *product.Product) error {
	p.ID = "generated-id"
	m.byID[p.ID] = p
	return nil
}

func (m *mockProductRepo) Update(_ context.Context, p *product.Product) error {
	if _, ok := m.byID[p.ID]; !ok {
		return product.ErrNotFound
	}
	m.byID[p.ID] = p
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

func (m *mockProductRepo) SetBlocked(_ context.Context, id string, blocked bool) error {
	p, ok := m.byID[id]
	if !ok {
		return product.ErrNotFound
	}
	p.Blocked = blocked
	return nil
}

func (m *mockProductRepo) RestoreStock(_ context.Context, id string, qty decimal.Decimal) error {
	p, ok := m.byID[id]
	if !ok {
		return product.ErrNotFound
	}
	p.Quantity = p.Quantity.Add(qty)
	return nil
}

func (m *mockProductRepo) AddReview(_ context.Context, id string, r product.Review) error {
	p, ok := m.byID[id]
	if !ok {
		return product.ErrNotFound
	}
	p.Reviews = append(p.Reviews, r)
	return nil
}

func (m *mockProductRepo) HasReviewBy(_ context.Context, id, userID string) (bool, error) {
	p, ok := m.byID[id]
	if !ok {
		return false, product.ErrNotFound
	}
	for _, r := range p.Reviews {
		if r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type mockOrderRepo struct {
	orders           map[string]*order.Order
	deliveredOrderID string
}

func (m *mockOrderRepo) Place(_ context.Context, o *order.Order) error {
	if m.orders == nil {
		m.orders = map[string]*order.Order{}
	}
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) GetByUser(_ context.Context, userID, orderID string) (*order.Order, error) {
	o, ok := m.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	out := []order.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) Update(_ context.Context, o *order.Order) error {
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) List(_ context.Context) ([]order.Order, error) {
	out := []order.Order{}
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderRepo) Get(_ context.Context, orderID string) (*order.Order, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, orderID string, status order.Status) error {
	o, ok := m.orders[orderID]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	return nil
}

func (m *mockOrderRepo) HasDeliveredItem(_ context.Context, _, _ string) (string, error) {
	if m.deliveredOrderID == "" {
		return "", order.ErrNotFound
	}
	return m.deliveredOrderID, nil
}

type mockCartRepo struct {
	carts map[string]*cart.Cart
}

func (m *mockCartRepo) Get(_ context.Context, userID string) (*cart.Cart, error) {
	if c, ok := m.carts[userID]; ok {
		return c, nil
	}
	return &cart.Cart{UserID: userID, Items: []cart.Item{}}, nil
}

func (m *mockCartRepo) Put(_ context.Context, c *cart.Cart) error {
	if m.carts == nil {
		m.carts = map[string]*cart.Cart{}
	}
	m.carts[c.UserID] = c
	return nil
}

func (m *mockCartRepo) Clear(_ context.Context, userID string) error {
	delete(m.carts, userID)
	return nil
}

type mockCategoryRepo struct {
	byID map[string]*category.Category
}

func (m *mockCategoryRepo) List(_ context.Context) ([]category.Category, error) {
	out := []category.Category{}
	for _, c := range m.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id string) (*category.Category, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, category.ErrNotFound
	}
	return c, nil
}

func (m *mockCategoryRepo) FindByName(_ context.Context, name string) (*category.Category, error) {
	for _, c := range m.byID {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, category.ErrNotFound
}

func (m *mockCategoryRepo) Create(_ context.Context, c *category.Category) error {
	for _, existing := range m.byID {
		if existing.Name == c.Name {
			return category.ErrDuplicateName
		}
	}
	if m.byID == nil {
		m.byID = map[string]*category.Category{}
	}
	c.ID = "generated-id"
	m.byID[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) Update(_ context.Context, c *category.Category) error {
	if _, ok := m.byID[c.ID]; !ok {
		return category.ErrNotFound
	}
	m.byID[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

type mockUserRepo struct {
	byID map[string]*user.User
}

func (m *mockUserRepo) List(_ context.Context) ([]user.User, error) {
	out := []user.User{}
	for _, u := range m.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) Create(_ context.Context, _ *user.User) error { return nil }

func (m *mockUserRepo) SetBlocked(_ context.Context, id string, blocked bool) error {
	u, ok := m.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	u.Blocked = blocked
	return nil
}

func (m *mockUserRepo) AddToWishlist(_ context.Context, id, productID string) error {
	u, ok := m.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	for _, p := range u.Wishlist {
		if p == productID {
			return nil
		}
	}
	u.Wishlist = append(u.Wishlist, productID)
	return nil
}

func (m *mockUserRepo) RemoveFromWishlist(_ context.Context, id, productID string) error {
	u, ok := m.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	for i, p := range u.Wishlist {
		if p == productID {
			u.Wishlist = append(u.Wishlist[:i], u.Wishlist[i+1:]...)
			break
		}
	}
	return nil
}

type mockAddressRepo struct {
	byUser map[string][]address.Address
}

func (m *mockAddressRepo) ListByUser(_ context.Context, userID string) ([]address.Address, error) {
	return m.byUser[userID], nil
}

func (m *mockAddressRepo) GetByUser(_ context.Context, userID, id string) (*address.Address, error) {
	for _, a := range m.byUser[userID] {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, address.ErrNotFound
}

func (m *mockAddressRepo) Create(_ context.Context, a *address.Address) error {
	if m.byUser == nil {
		m.byUser = map[string][]address.Address{}
	}
	a.ID = "addr-generated"
	m.byUser[a.UserID] = append(m.byUser[a.UserID], *a)
	return nil
}

func (m *mockAddressRepo) Update(_ context.Context, _ *address.Address) error { return nil }
func (m *mockAddressRepo) Delete(_ context.Context, _, _ string) error        { return nil }

type mockGateway struct {
	order *payment.GatewayOrder
	err   error
}

func (m *mockGateway) CreateOrder(_ context.Context, _ decimal.Decimal, _ string) (*payment.GatewayOrder, error) {
	return m.order, m.err
}

type mockVerifier struct {
	ok bool
}

func (m *mockVerifier) Verify(_, _, _ string) bool { return m.ok }

// --- Helpers ---

type fixture struct {
	mux      *http.ServeMux
	products *mockProductRepo
	orders   *mockOrderRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	products := &mockProductRepo{byID: map[string]*product.Product{
		"p1": {
			ID:         "p1",
			Name:       "Country Sourdough",
			Price:      decimal.RequireFromString("240"),
			Quantity:   decimal.NewFromInt(5),
			Unit:       product.UnitPiece,
			Status:     product.StatusAvailable,
			CategoryID: "c1",
			Images:     []string{"/img/sourdough.jpg"},
		},
	}}
	orders := &mockOrderRepo{orders: map[string]*order.Order{}}
	carts := &mockCartRepo{}
	categories := &mockCategoryRepo{byID: map[string]*category.Category{
		"c1": {ID: "c1", Name: "Breads"},
	}}
	users := &mockUserRepo{byID: map[string]*user.User{
		"u1": {ID: "u1", Name: "Priya", Email: "priya@example.com"},
	}}
	addresses := &mockAddressRepo{}
	gateway := &mockGateway{order: &payment.GatewayOrder{ID: "order_gw1", Amount: 24000, Currency: "INR"}}

	h := NewHandler(
		Config{ImageBaseURL: "https://cdn.example.com", AdminAPIKey: testAdminKey},
		cart.NewService(carts, products),
		order.NewService(products, orders, &mockVerifier{ok: true}),
		review.NewService(products, orders, users),
		user.NewWishlistService(users, products),
		gateway,
		products,
		categories,
		users,
		addresses,
		orders,
	)
	return &fixture{mux: h.Routes(), products: products, orders: orders}
}

func (f *fixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func asUser() map[string]string  { return map[string]string{"X-User-ID": "u1"} }
func asAdmin() map[string]string { return map[string]string{"X-Admin-Key": testAdminKey} }

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// --- Auth ---

func TestStorefrontRequiresUser(t *testing.T) {
	f := newFixture(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/cart"},
		{http.MethodPost, "/api/orders"},
		{http.MethodGet, "/api/wishlist"},
		{http.MethodPost, "/api/reviews"},
	} {
		rec := f.do(t, route.method, route.path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
		body := decode[map[string]string](t, rec)
		assert.Equal(t, "Please login first", body["error"])
	}
}

func TestAdminRequiresKey(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/admin/products", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/admin/products", nil, map[string]string{"X-Admin-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/admin/products", nil, asAdmin())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminDisabledWithoutKey(t *testing.T) {
	s := NewSecurityHandler(nil)
	rec := httptest.NewRecorder()
	s.Require(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	})(rec, httptest.NewRequest(http.MethodGet, "/api/admin/products", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin access disabled")
}

// --- Catalog ---

func TestGetProduct(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/products/p1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	p := decode[productResponse](t, rec)
	assert.Equal(t, "Country Sourdough", p.Name)
	assert.Equal(t, float64(240), p.Price)
	require.Len(t, p.Images, 1)
	assert.Equal(t, "https://cdn.example.com/img/sourdough.jpg", p.Images[0],
		"relative image paths get the base URL prefix")
}

func TestGetProduct_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/products/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProducts_HidesBlocked(t *testing.T) {
	f := newFixture(t)
	f.products.byID["p1"].Blocked = true

	rec := f.do(t, http.MethodGet, "/api/products", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]productResponse](t, rec))
}

// --- Cart ---

func TestAddToCart_OutOfStock(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/cart",
		map[string]any{"productId": "p1", "quantity": 6}, asUser())
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "OUT_OF_STOCK", body["status"])
	assert.Equal(t, float64(5), body["availableQuantity"])
	assert.Equal(t, "pcs", body["unit"])
}

func TestCartRoundTrip(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/cart",
		map[string]any{"productId": "p1", "quantity": 2}, asUser())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/cart", nil, asUser())
	require.Equal(t, http.StatusOK, rec.Code)

	c := decode[cartResponse](t, rec)
	require.Len(t, c.Items, 1)
	assert.Equal(t, float64(2), c.Items[0].Quantity)
	assert.Equal(t, float64(480), c.Total)
}

// --- Orders ---

func placeOrderBody(qty int) map[string]any {
	return map[string]any{
		"address":       "addr1",
		"paymentMethod": "cod",
		"orderedItems": []map[string]any{
			{"product": "p1", "quantity": qty, "price": 240, "unit": "pcs"},
		},
		"totalPrice":  240 * qty,
		"finalAmount": 240 * qty,
	}
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/orders", placeOrderBody(2), asUser())
	require.Equal(t, http.StatusCreated, rec.Code)

	o := decode[orderResponse](t, rec)
	assert.NotEmpty(t, o.OrderID)
	assert.Equal(t, "processing", o.Status)
	assert.Equal(t, "cod", o.PaymentMethod)
	require.Len(t, o.OrderedItems, 1)
	assert.Equal(t, "pending", o.OrderedItems[0].Status)
}

func TestPlaceOrder_RejectsGatewayMethod(t *testing.T) {
	f := newFixture(t)

	body := placeOrderBody(1)
	body["paymentMethod"] = "upi"
	rec := f.do(t, http.MethodPost, "/api/orders", body, asUser())
	assert.Equal(t, http.StatusBadRequest, rec.Code, "gateway payments go through /api/payment/verify")
}

func TestPlaceOrder_OutOfStock(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/orders", placeOrderBody(6), asUser())
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "OUT_OF_STOCK", body["status"])
	assert.Equal(t, float64(5), body["availableQuantity"])
}

func TestVerifyPayment_MissingSignature(t *testing.T) {
	f := newFixture(t)

	body := placeOrderBody(1)
	body["gatewayOrderId"] = "order_gw1"
	body["gatewayPaymentId"] = "pay_1"
	rec := f.do(t, http.MethodPost, "/api/payment/verify", body, asUser())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateGatewayOrder(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/payment/order",
		map[string]any{"amount": 240}, asUser())
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "order_gw1", body["gatewayOrderId"])
	assert.Equal(t, float64(24000), body["amount"])
}

// --- Reviews ---

func TestSubmitReview_NotPurchased(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/reviews",
		map[string]any{"productId": "p1", "rating": 5}, asUser())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubmitReview_Duplicate(t *testing.T) {
	f := newFixture(t)
	f.orders.deliveredOrderID = "o1"

	rec := f.do(t, http.MethodPost, "/api/reviews",
		map[string]any{"productId": "p1", "rating": 5, "comment": "Excellent"}, asUser())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/reviews",
		map[string]any{"productId": "p1", "rating": 4}, asUser())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// --- Admin ---

func TestAdminCreateCategory_DuplicateName(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/admin/category",
		map[string]any{"name": "Breads"}, asAdmin())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unique")
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/orders", placeOrderBody(1), asUser())
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID := decode[orderResponse](t, rec).OrderID

	// processing cannot skip straight to delivered.
	rec = f.do(t, http.MethodPatch, "/api/admin/orders",
		map[string]any{"orderId": orderID, "status": "delivered"}, asAdmin())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cannot change status from processing to delivered")

	rec = f.do(t, http.MethodPatch, "/api/admin/orders",
		map[string]any{"orderId": orderID, "status": "shipping"}, asAdmin())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shipping", decode[orderResponse](t, rec).Status)

	rec = f.do(t, http.MethodPatch, "/api/admin/orders",
		map[string]any{"orderId": orderID, "status": "refunded"}, asAdmin())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid status")
}

func TestAdminBlockProduct(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPatch, "/api/admin/products",
		map[string]any{"id": "p1", "blocked": true}, asAdmin())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.products.byID["p1"].Blocked)
}

// --- Wishlist ---

func TestWishlistRoundTrip(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/wishlist",
		map[string]any{"productId": "p1"}, asUser())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/wishlist", nil, asUser())
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]productResponse](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)

	rec = f.do(t, http.MethodDelete, "/api/wishlist",
		map[string]any{"productId": "p1"}, asUser())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/wishlist", nil, asUser())
	assert.Empty(t, decode[[]productResponse](t, rec))
}
