package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ovenfresh/bakery-api/internal/domain/order"
)

// CreateGatewayOrder is phase one of the online payment path: it creates a
// pending order on the payment gateway for the checkout amount and returns
// its identifier so the client can open the hosted checkout. No stock is
// touched yet.
func (h *Handler) CreateGatewayOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be greater than 0")
		return
	}

	receipt := fmt.Sprintf("rcpt_%d", time.Now().UnixMilli())
	gw, err := h.gateway.CreateOrder(r.Context(), req.Amount, receipt)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"gatewayOrderId": gw.ID,
		"amount":         gw.Amount,
		"currency":       gw.Currency,
	})
}

// VerifyPayment is phase two: it checks the gateway's signature over the
// client-relayed confirmation and, only when it matches, creates the order
// with the same all-or-nothing semantics as the COD path.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GatewayOrderID   string `json:"gatewayOrderId"`
		GatewayPaymentID string `json:"gatewayPaymentId"`
		Signature        string `json:"signature"`
		placeOrderRequest
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		writeError(w, http.StatusBadRequest, "gateway order, payment id and signature are required")
		return
	}
	if req.Address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	o, err := h.orders.VerifyAndPlace(r.Context(), userID(r), order.VerifyRequest{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
		Order:            req.placeOrderRequest.toDomain(),
	})
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orderId": o.ID})
}
