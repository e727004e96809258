package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ovenfresh/bakery-api/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

const orderColumns = `order_id, user_id, address_id, ordered_items,
	total_price, discount, final_amount, status, payment_method,
	created_at, updated_at`

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Place runs the whole placement as one transaction: a conditional stock
// decrement per item, the order insert, and the cart wipe. The decrement
// matches only rows with enough stock, so a concurrent checkout that drains
// the shelf first turns this one into a clean *order.OutOfStockError with
// nothing applied.
func (r *OrderRepository) Place(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, item := range o.Items {
		tag, err := tx.Exec(ctx,
			`UPDATE products SET quantity = quantity - $2, updated_at = now()
			 WHERE id = $1 AND quantity >= $2`,
			item.ProductID, item.Quantity,
		)
		if err != nil {
			return errors.Wrapf(err, "decrement stock for product %q", item.ProductID)
		}
		if tag.RowsAffected() == 0 {
			return r.outOfStock(ctx, item.ProductID)
		}
	}

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO orders (order_id, user_id, address_id, ordered_items,
		                     total_price, discount, final_amount, status, payment_method)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`,
		o.ID, o.UserID, o.AddressID, itemsJSON,
		o.TotalPrice, o.Discount, o.FinalAmount, o.Status, o.PaymentMethod,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return errors.Wrapf(err, "insert order %q", o.ID)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE carts SET items = '[]', updated_at = now() WHERE user_id = $1`,
		o.UserID,
	); err != nil {
		return errors.Wrap(err, "clear cart")
	}

	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

// outOfStock builds the structured error for a failed decrement. The read
// happens outside the aborted update path, so a vanished product yields the
// generic variant with only the id set.
func (r *OrderRepository) outOfStock(ctx context.Context, productID string) error {
	oos := &order.OutOfStockError{ProductID: productID}
	err := r.pool.QueryRow(ctx,
		`SELECT name, quantity, unit FROM products WHERE id = $1`,
		productID,
	).Scan(&oos.Name, &oos.Available, &oos.Unit)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return errors.Wrapf(err, "look up product %q", productID)
	}
	return oos
}

// GetByUser returns one order scoped to the user, or order.ErrNotFound.
func (r *OrderRepository) GetByUser(ctx context.Context, userID, orderID string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_id = $1 AND user_id = $2`,
		orderID, userID,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "query order %q", orderID)
	}
	defer rows.Close()
	return oneOrder(rows)
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return r.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
}

// List returns all orders across users, newest first (admin view).
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	return r.listOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

// Get returns one order regardless of owner (admin view).
func (r *OrderRepository) Get(ctx context.Context, orderID string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, orderID,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "query order %q", orderID)
	}
	defer rows.Close()
	return oneOrder(rows)
}

// Update persists mutated item statuses, recomputed totals and order status.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE orders
		 SET ordered_items = $2, final_amount = $3, status = $4, updated_at = now()
		 WHERE order_id = $1`,
		o.ID, itemsJSON, o.FinalAmount, o.Status,
	)
	if err != nil {
		return errors.Wrapf(err, "update order %q", o.ID)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// UpdateStatus sets only the order-level status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status order.Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE order_id = $1`,
		orderID, status,
	)
	if err != nil {
		return errors.Wrapf(err, "update order %q status", orderID)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// HasDeliveredItem returns the id of a delivered order of this user that
// contains the product, or order.ErrNotFound.
func (r *OrderRepository) HasDeliveredItem(ctx context.Context, userID, productID string) (string, error) {
	var orderID string
	err := r.pool.QueryRow(ctx,
		`SELECT order_id FROM orders
		 WHERE user_id = $1 AND status = 'delivered'
		   AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(ordered_items) AS it
			WHERE it->>'productId' = $2
		   )
		 LIMIT 1`,
		userID, productID,
	).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", order.ErrNotFound
		}
		return "", errors.Wrap(err, "query delivered orders")
	}
	return orderID, nil
}

func (r *OrderRepository) listOrders(ctx context.Context, query string, args ...any) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func oneOrder(rows pgx.Rows) (*order.Order, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.Wrap(err, "query order")
		}
		return nil, order.ErrNotFound
	}
	return scanOrder(rows)
}

func scanOrder(rows pgx.Rows) (*order.Order, error) {
	var (
		o     order.Order
		items []byte
	)
	err := rows.Scan(
		&o.ID, &o.UserID, &o.AddressID, &items,
		&o.TotalPrice, &o.Discount, &o.FinalAmount, &o.Status, &o.PaymentMethod,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "scan order")
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, errors.Wrap(err, "unmarshal order items")
	}
	return &o, nil
}
