package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ovenfresh/bakery-api/internal/domain/order"
	"github.com/ovenfresh/bakery-api/internal/domain/product"
)

type orderItemRequest struct {
	ProductID string          `json:"product"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Unit      string          `json:"unit"`
}

type placeOrderRequest struct {
	Address       string             `json:"address"`
	PaymentMethod string             `json:"paymentMethod"`
	OrderedItems  []orderItemRequest `json:"orderedItems"`
	TotalPrice    decimal.Decimal    `json:"totalPrice"`
	Discount      decimal.Decimal    `json:"discount"`
	FinalAmount   decimal.Decimal    `json:"finalAmount"`
}

func (req placeOrderRequest) toDomain() order.PlaceRequest {
	items := make([]order.ItemInput, len(req.OrderedItems))
	for i, it := range req.OrderedItems {
		items[i] = order.ItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Unit:      product.Unit(it.Unit),
		}
	}
	return order.PlaceRequest{
		AddressID:     req.Address,
		Items:         items,
		TotalPrice:    req.TotalPrice,
		Discount:      req.Discount,
		FinalAmount:   req.FinalAmount,
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
	}
}

type orderItemResponse struct {
	ID                 string     `json:"id"`
	ProductID          string     `json:"product"`
	Quantity           float64    `json:"quantity"`
	Price              float64    `json:"price"`
	Unit               string     `json:"unit"`
	Status             string     `json:"status"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty"`
}

type orderResponse struct {
	OrderID       string              `json:"orderId"`
	Address       string              `json:"address"`
	OrderedItems  []orderItemResponse `json:"orderedItems"`
	TotalPrice    float64             `json:"totalPrice"`
	Discount      float64             `json:"discount"`
	FinalAmount   float64             `json:"finalAmount"`
	Status        string              `json:"status"`
	PaymentMethod string              `json:"paymentMethod"`
	CreatedAt     time.Time           `json:"createdAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ID:                 it.ID,
			ProductID:          it.ProductID,
			Quantity:           it.Quantity.InexactFloat64(),
			Price:              it.Price.InexactFloat64(),
			Unit:               string(it.Unit),
			Status:             string(it.Status),
			CancelledAt:        it.CancelledAt,
			CancellationReason: it.CancellationReason,
		}
	}
	return orderResponse{
		OrderID:       o.ID,
		Address:       o.AddressID,
		OrderedItems:  items,
		TotalPrice:    o.TotalPrice.InexactFloat64(),
		Discount:      o.Discount.InexactFloat64(),
		FinalAmount:   o.FinalAmount.InexactFloat64(),
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		CreatedAt:     o.CreatedAt,
	}
}

// PlaceOrder creates a cash-on-delivery order from the checkout payload.
// Stock is re-validated at commit time; any shortfall aborts the whole
// order.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}
	if req.PaymentMethod != string(order.PaymentCOD) {
		writeError(w, http.StatusBadRequest, "unsupported payment method")
		return
	}

	o, err := h.orders.Place(r.Context(), userID(r), req.toDomain())
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

// ListOrders returns the authenticated user's orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByUser(r.Context(), userID(r))
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

// GetOrder returns one of the user's orders by its public id.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByUser(r.Context(), userID(r), r.PathValue("orderId"))
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// CancelOrderItem cancels a single item of an order within the cancellation
// window, restoring its quantity to stock and recomputing the payable
// amount.
func (h *Handler) CancelOrderItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID             string `json:"itemId"`
		CancellationReason string `json:"cancellationReason"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "itemId is required")
		return
	}

	o, err := h.orders.CancelItem(r.Context(), userID(r), r.PathValue("orderId"), req.ItemID, req.CancellationReason)
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Item cancelled successfully. Refund will be credited to your bank account within 24 hours.",
		"updatedOrder": toOrderResponse(o),
	})
}

// orderError maps order domain errors onto HTTP responses.
func (h *Handler) orderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		oos *order.OutOfStockError
		iq  *order.InvalidQuantityError
	)
	switch {
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, order.ErrEmptyItems):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrInvalidSignature):
		writeError(w, http.StatusBadRequest, "Invalid signature")
	case errors.Is(err, order.ErrCancelForbidden),
		errors.Is(err, order.ErrCancelWindowExpired),
		errors.Is(err, order.ErrItemAlreadyCancelled):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &iq):
		writeError(w, http.StatusBadRequest, iq.Error())
	case errors.As(err, &oos):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":             oos.Error(),
			"status":            "OUT_OF_STOCK",
			"availableQuantity": oos.Available.InexactFloat64(),
			"unit":              string(oos.Unit),
		})
	default:
		internalError(w, r, err)
	}
}
