package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("user not found")

// User is a storefront account. Authentication and session issuance are
// external; the API receives an already verified user identity.
type User struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Blocked   bool
	Wishlist  []string // product ids
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines persistence operations for users.
type Repository interface {
	List(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u *User) error
	SetBlocked(ctx context.Context, id string, blocked bool) error

	AddToWishlist(ctx context.Context, id, productID string) error
	RemoveFromWishlist(ctx context.Context, id, productID string) error
}
