package address

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested address does not exist or does
// not belong to the requesting user.
var ErrNotFound = errors.New("address not found")

// Address is a delivery destination owned by a user. Orders reference it by
// id; edits after order placement are not frozen into past orders.
type Address struct {
	ID         string
	UserID     string
	Name       string
	HouseNo    string
	StreetMark string
	Place      string
	State      string
	Pincode    string
	Phone      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Repository defines persistence operations for addresses.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Address, error)
	GetByUser(ctx context.Context, userID, id string) (*Address, error)
	Create(ctx context.Context, a *Address) error
	Update(ctx context.Context, a *Address) error
	Delete(ctx context.Context, userID, id string) error
}
