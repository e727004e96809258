package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ovenfresh/bakery-api/internal/domain/cart"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. The item
// list lives in a single JSONB column keyed by user id.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get returns the user's cart, or an empty cart when none is stored.
func (r *CartRepository) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	var items []byte
	err := r.pool.QueryRow(ctx,
		`SELECT items FROM carts WHERE user_id = $1`, userID,
	).Scan(&items)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &cart.Cart{UserID: userID, Items: []cart.Item{}}, nil
		}
		return nil, errors.Wrap(err, "query cart")
	}

	c := &cart.Cart{UserID: userID}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, errors.Wrap(err, "unmarshal cart items")
	}
	return c, nil
}

// Put upserts the user's cart items.
func (r *CartRepository) Put(ctx context.Context, c *cart.Cart) error {
	if c.Items == nil {
		c.Items = []cart.Item{}
	}
	items, err := json.Marshal(c.Items)
	if err != nil {
		return errors.Wrap(err, "marshal cart items")
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO carts (user_id, items) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET items = EXCLUDED.items, updated_at = now()`,
		c.UserID, items,
	)
	return errors.Wrap(err, "upsert cart")
}

// Clear empties the user's cart. Clearing an absent cart is a no-op.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE carts SET items = '[]', updated_at = now() WHERE user_id = $1`,
		userID,
	)
	return errors.Wrap(err, "clear cart")
}
