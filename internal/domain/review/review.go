package review

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/go-faster/errors"

	"github.com/ovenfresh/bakery-api/internal/domain/order"
	"github.com/ovenfresh/bakery-api/internal/domain/product"
	"github.com/ovenfresh/bakery-api/internal/domain/user"
)

// MaxCommentLength caps review comments.
const MaxCommentLength = 600

var (
	// ErrInvalidRating is returned for ratings outside [1,5].
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrCommentTooLong is returned when comment exceeds MaxCommentLength.
	ErrCommentTooLong = errors.New("comment must be 600 characters or less")
	// ErrNotPurchased is returned when the user has no delivered order
	// containing the product.
	ErrNotPurchased = errors.New("purchase and receive this product before reviewing")
	// ErrAlreadyReviewed is returned when the user reviewed the product before.
	ErrAlreadyReviewed = errors.New("you have already reviewed this product")
)

// SubmitRequest is the input to Submit.
type SubmitRequest struct {
	ProductID string
	Rating    int
	Comment   string
}

// Service gates review submission on delivered purchases and appends
// accepted reviews to the product's embedded review list.
type Service struct {
	products product.Repository
	orders   order.Repository
	users    user.Repository
	now      func() time.Time
}

// NewService creates a review Service.
func NewService(products product.Repository, orders order.Repository, users user.Repository) *Service {
	return &Service{
		products: products,
		orders:   orders,
		users:    users,
		now:      time.Now,
	}
}

// Submit validates and stores a review. The reviewer's display name is
// snapshotted at write time and the authorizing order id is recorded as
// provenance.
func (s *Service) Submit(ctx context.Context, userID string, req SubmitRequest) (*product.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if utf8.RuneCountInString(req.Comment) > MaxCommentLength {
		return nil, ErrCommentTooLong
	}

	orderID, err := s.orders.HasDeliveredItem(ctx, userID, req.ProductID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, ErrNotPurchased
		}
		return nil, errors.Wrap(err, "check purchase history")
	}

	reviewed, err := s.products.HasReviewBy(ctx, req.ProductID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "check existing review")
	}
	if reviewed {
		return nil, ErrAlreadyReviewed
	}

	name := "A Customer"
	if u, err := s.users.GetByID(ctx, userID); err == nil && u.Name != "" {
		name = u.Name
	}

	r := product.Review{
		UserID:    userID,
		UserName:  name,
		Rating:    req.Rating,
		Comment:   req.Comment,
		OrderID:   orderID,
		CreatedAt: s.now(),
	}
	if err := s.products.AddReview(ctx, req.ProductID, r); err != nil {
		return nil, errors.Wrap(err, "add review")
	}
	return &r, nil
}
