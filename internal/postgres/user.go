package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ovenfresh/bakery-api/internal/domain/user"
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, name, email, phone, blocked, wishlist, created_at, updated_at`

// List returns all users, newest first (admin view).
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "query users")
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// GetByID returns a single user or user.ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "query user %q", id)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.Wrapf(err, "query user %q", id)
		}
		return nil, user.ErrNotFound
	}
	return scanUser(rows)
}

// Create inserts a user and fills in its generated id and timestamps.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if u.Wishlist == nil {
		u.Wishlist = []string{}
	}
	wishlist, err := json.Marshal(u.Wishlist)
	if err != nil {
		return errors.Wrap(err, "marshal wishlist")
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, phone, blocked, wishlist)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.Phone, u.Blocked, wishlist,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "insert user")
	}
	return nil
}

// SetBlocked toggles the account block flag.
func (r *UserRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET blocked = $2, updated_at = now() WHERE id = $1`,
		id, blocked,
	)
	if err != nil {
		return errors.Wrapf(err, "block user %q", id)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// AddToWishlist appends the product id to the wishlist set unless present.
func (r *UserRepository) AddToWishlist(ctx context.Context, id, productID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET wishlist = wishlist || to_jsonb($2::text), updated_at = now()
		 WHERE id = $1 AND NOT wishlist ? $2`,
		id, productID,
	)
	if err != nil {
		return errors.Wrapf(err, "add to wishlist of user %q", id)
	}
	if tag.RowsAffected() == 0 {
		// Either the user is missing or the product is already wishlisted;
		// distinguish so missing users still surface.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// RemoveFromWishlist drops the product id from the wishlist set.
func (r *UserRepository) RemoveFromWishlist(ctx context.Context, id, productID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET wishlist = wishlist - $2, updated_at = now() WHERE id = $1`,
		id, productID,
	)
	if err != nil {
		return errors.Wrapf(err, "remove from wishlist of user %q", id)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func scanUser(rows pgx.Rows) (*user.User, error) {
	var (
		u        user.User
		wishlist []byte
	)
	err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Blocked, &wishlist, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "scan user")
	}
	if err := json.Unmarshal(wishlist, &u.Wishlist); err != nil {
		return nil, errors.Wrap(err, "unmarshal wishlist")
	}
	return &u, nil
}
