package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ovenfresh/bakery-api/internal/domain/product"
)

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// SignatureVerifier checks the gateway's HMAC signature binding a gateway
// order id to a payment id. It is the sole integrity guarantee on the
// client-relayed payment confirmation.
type SignatureVerifier interface {
	Verify(gatewayOrderID, gatewayPaymentID, signature string) bool
}

// ItemInput is one requested order line. Price and Unit are the values the
// caller checked out with; they are captured on the order as-is.
type ItemInput struct {
	ProductID string
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	Unit      product.Unit
}

// PlaceRequest holds the input for placing an order.
type PlaceRequest struct {
	AddressID     string
	Items         []ItemInput
	TotalPrice    decimal.Decimal
	Discount      decimal.Decimal
	FinalAmount   decimal.Decimal
	PaymentMethod PaymentMethod
}

// VerifyRequest holds a client-relayed payment confirmation plus the order
// to create once the signature checks out.
type VerifyRequest struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	Order            PlaceRequest
}

// Service implements the order workflow: placement over both payment paths
// and time-boxed item cancellation with stock restoration.
type Service struct {
	products product.Repository
	orders   Repository
	verifier SignatureVerifier
	now      func() time.Time
}

// NewService creates an order Service with the required dependencies.
func NewService(products product.Repository, orders Repository, verifier SignatureVerifier) *Service {
	return &Service{
		products: products,
		orders:   orders,
		verifier: verifier,
		now:      time.Now,
	}
}

// Place creates an order on the cash-on-delivery path. Every item is
// re-validated against current stock; any shortfall fails the whole
// operation with *OutOfStockError and nothing is persisted. On success the
// order is stored, stock decremented and the cart cleared in one
// transaction (see Repository.Place).
func (s *Service) Place(ctx context.Context, userID string, req PlaceRequest) (*Order, error) {
	status := StatusPaymentPending
	if req.PaymentMethod == PaymentCOD {
		status = StatusProcessing
	}
	return s.place(ctx, userID, req, status)
}

func (s *Service) place(ctx context.Context, userID string, req PlaceRequest, status Status) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	items := make([]Item, len(req.Items))
	for i, in := range req.Items {
		if !in.Quantity.IsPositive() {
			return nil, &InvalidQuantityError{ProductID: in.ProductID}
		}

		// Pre-check for a friendly error naming the product. The decisive
		// check is the conditional decrement inside Repository.Place, which
		// cannot race past concurrent checkouts.
		p, err := s.products.GetByID(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, &OutOfStockError{ProductID: in.ProductID}
			}
			return nil, errors.Wrapf(err, "get product %s", in.ProductID)
		}
		if p.Quantity.LessThan(in.Quantity) {
			return nil, &OutOfStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Available: p.Quantity,
				Unit:      p.Unit,
			}
		}

		items[i] = Item{
			ID:        uuid.New().String(),
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			Price:     in.Price,
			Unit:      in.Unit,
			Status:    ItemPending,
		}
	}

	o := &Order{
		ID:            uuid.New().String(),
		UserID:        userID,
		AddressID:     req.AddressID,
		Items:         items,
		TotalPrice:    req.TotalPrice,
		Discount:      req.Discount,
		FinalAmount:   req.FinalAmount,
		Status:        status,
		PaymentMethod: req.PaymentMethod,
	}

	if err := s.orders.Place(ctx, o); err != nil {
		var oos *OutOfStockError
		if errors.As(err, &oos) {
			return nil, oos
		}
		return nil, errors.Wrap(err, "place order")
	}
	return o, nil
}

// VerifyAndPlace is phase two of the gateway payment path. It verifies the
// HMAC signature over {gatewayOrderId}|{gatewayPaymentId} and fails closed
// with ErrInvalidSignature on mismatch — no order is created. On success it
// performs the same all-or-nothing creation as the COD path, with payment
// method upi and status processing.
func (s *Service) VerifyAndPlace(ctx context.Context, userID string, req VerifyRequest) (*Order, error) {
	if !s.verifier.Verify(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		return nil, ErrInvalidSignature
	}

	// Payment verified: the order starts processing immediately.
	req.Order.PaymentMethod = PaymentUPI
	return s.place(ctx, userID, req.Order, StatusProcessing)
}

// CancelItem cancels a single line of the user's order within the
// cancellation window, restores the cancelled quantity to the product's
// stock and recomputes the payable amount. When the last active item is
// cancelled the whole order becomes cancelled.
func (s *Service) CancelItem(ctx context.Context, userID, orderID, itemID, reason string) (*Order, error) {
	o, err := s.orders.GetByUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if o.Status == StatusDelivered || o.Status == StatusCancelled {
		return nil, ErrCancelForbidden
	}
	if s.now().Sub(o.CreatedAt) > CancellationWindow {
		return nil, ErrCancelWindowExpired
	}

	idx := -1
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	if o.Items[idx].Status == ItemCancelled {
		return nil, ErrItemAlreadyCancelled
	}

	if reason == "" {
		reason = "No reason provided"
	}
	now := s.now()
	o.Items[idx].Status = ItemCancelled
	o.Items[idx].CancelledAt = &now
	o.Items[idx].CancellationReason = reason

	// Restore stock best-effort: a product deleted since the order was
	// placed must not fail the cancellation.
	item := o.Items[idx]
	if err := s.products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
		if !errors.Is(err, product.ErrNotFound) {
			return nil, errors.Wrapf(err, "restore stock for product %s", item.ProductID)
		}
		zctx.From(ctx).Warn("Product gone, stock not restored",
			zap.String("product_id", item.ProductID),
			zap.String("order_id", o.ID),
		)
	}

	o.RecomputeFinalAmount()
	if o.ActiveItems() == 0 {
		o.Status = StatusCancelled
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// GetByUser returns one order scoped to the user.
func (s *Service) GetByUser(ctx context.Context, userID, orderID string) (*Order, error) {
	return s.orders.GetByUser(ctx, userID, orderID)
}
