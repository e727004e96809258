package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ovenfresh/bakery-api/internal/domain/product"
)

var (
	// ErrNotFound is returned when a requested order does not exist or does
	// not belong to the requesting user.
	ErrNotFound = errors.New("order not found")
	// ErrEmptyItems is returned when placing an order with no items.
	ErrEmptyItems = errors.New("ordered items required")
	// ErrInvalidSignature is returned when a payment confirmation's HMAC
	// signature does not match. The order is never created in that case.
	ErrInvalidSignature = errors.New("invalid payment signature")
	// ErrCancelForbidden is returned when cancelling items in an order whose
	// overall status is delivered or cancelled.
	ErrCancelForbidden = errors.New("cannot cancel items in a delivered or cancelled order")
	// ErrCancelWindowExpired is returned when the cancellation window has
	// elapsed since order placement.
	ErrCancelWindowExpired = errors.Errorf("cancellation is only allowed within %d minutes of order placement", int(CancellationWindow.Minutes()))
	// ErrItemNotFound is returned when the item id does not belong to the order.
	ErrItemNotFound = errors.New("item not found in this order")
	// ErrItemAlreadyCancelled is returned when cancelling an item twice.
	// Cancellation never double-restores stock.
	ErrItemAlreadyCancelled = errors.New("item is already cancelled")
)

// CancellationWindow is how long after placement a user may cancel items.
// Evaluated by wall-clock comparison at request time, not a scheduled expiry.
const CancellationWindow = 15 * time.Minute

// OutOfStockError indicates an ordered quantity exceeded current stock at
// commit time. Order placement is all-or-nothing: when any item fails the
// whole order is aborted and no stock is touched.
type OutOfStockError struct {
	ProductID string
	Name      string
	Available decimal.Decimal
	Unit      product.Unit
}

func (e *OutOfStockError) Error() string {
	name := e.Name
	if name == "" {
		name = "Product"
	}
	return fmt.Sprintf("%s went out of stock during checkout", name)
}

// Status enumerates order-level lifecycle states.
type Status string

const (
	StatusPending        Status = "pending"
	StatusProcessing     Status = "processing"
	StatusShipping       Status = "shipping"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
	StatusReturned       Status = "returned"
	StatusPaymentPending Status = "payment_pending"
)

// ValidStatus reports whether s is one of the enumerated order statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipping, StatusDelivered,
		StatusCancelled, StatusReturned, StatusPaymentPending:
		return true
	}
	return false
}

// statusTransitions encodes the admin-facing order state machine:
//
//	payment_pending/pending -> processing -> shipping -> delivered -> returned
//
// with cancelled reachable from every non-terminal state. delivered,
// cancelled and returned are terminal except for delivered -> returned.
var statusTransitions = map[Status][]Status{
	StatusPending:        {StatusProcessing, StatusCancelled},
	StatusPaymentPending: {StatusProcessing, StatusCancelled},
	StatusProcessing:     {StatusShipping, StatusCancelled},
	StatusShipping:       {StatusDelivered, StatusCancelled},
	StatusDelivered:      {StatusReturned},
	StatusCancelled:      {},
	StatusReturned:       {},
}

// CanTransitionTo reports whether the order status may move from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ItemStatus enumerates per-item lifecycle states.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemShipped   ItemStatus = "shipped"
	ItemDelivered ItemStatus = "delivered"
	ItemCancelled ItemStatus = "cancelled"
	ItemReturned  ItemStatus = "returned"
)

// PaymentMethod enumerates how an order is paid.
type PaymentMethod string

const (
	PaymentCOD PaymentMethod = "cod"
	PaymentUPI PaymentMethod = "upi"
)

// Item is a single ordered line. Price and Unit are captured at order time
// so later catalog edits do not change historical orders.
type Item struct {
	ID                 string          `json:"id"`
	ProductID          string          `json:"productId"`
	Quantity           decimal.Decimal `json:"quantity"`
	Price              decimal.Decimal `json:"price"`
	Unit               product.Unit    `json:"unit"`
	Status             ItemStatus      `json:"status"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
}

// Value is the monetary value of the line (price x quantity).
func (i Item) Value() decimal.Decimal {
	return i.Price.Mul(i.Quantity)
}

// Order is a placed customer order. ID is an independently generated public
// identifier, distinct from the storage row id. AddressID is a snapshot
// reference, not a copy: address edits after placement are not frozen.
type Order struct {
	ID            string
	UserID        string
	AddressID     string
	Items         []Item
	TotalPrice    decimal.Decimal
	Discount      decimal.Decimal
	FinalAmount   decimal.Decimal
	Status        Status
	PaymentMethod PaymentMethod
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CancelledValue is the cumulative monetary value of all cancelled items.
func (o *Order) CancelledValue() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		if it.Status == ItemCancelled {
			total = total.Add(it.Value())
		}
	}
	return total
}

// RecomputeFinalAmount re-derives the payable amount after cancellations:
// max(0, totalPrice - discount - sum of cancelled item values).
func (o *Order) RecomputeFinalAmount() {
	final := o.TotalPrice.Sub(o.Discount).Sub(o.CancelledValue())
	if final.IsNegative() {
		final = decimal.Zero
	}
	o.FinalAmount = final
}

// ActiveItems counts items that are not cancelled.
func (o *Order) ActiveItems() int {
	n := 0
	for _, it := range o.Items {
		if it.Status != ItemCancelled {
			n++
		}
	}
	return n
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Place persists the order, decrements each product's stock with an
	// atomic conditional update, and clears the user's cart — all in one
	// transaction. A decrement that matches no row aborts the transaction
	// and returns *OutOfStockError; nothing is applied partially.
	Place(ctx context.Context, o *Order) error

	GetByUser(ctx context.Context, userID, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)

	// Update persists item statuses, recomputed totals and the order status.
	Update(ctx context.Context, o *Order) error

	// Admin surface.
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, orderID string) (*Order, error)
	UpdateStatus(ctx context.Context, orderID string, status Status) error

	// HasDeliveredItem returns the id of a delivered order of this user that
	// contains the product, or ErrNotFound when no such order exists.
	HasDeliveredItem(ctx context.Context, userID, productID string) (string, error)
}
