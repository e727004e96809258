package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ovenfresh/bakery-api/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

const productColumns = `id, name, description, price, quantity, unit, status,
	blocked, product_offer, category_id, images, reviews, created_at, updated_at`

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns every product, including blocked ones (admin view).
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
}

// ListUnblocked returns the public catalog: blocked products excluded.
func (r *ProductRepository) ListUnblocked(ctx context.Context) ([]product.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE NOT blocked ORDER BY created_at DESC`)
}

// ListByCategory returns unblocked products in a category.
func (r *ProductRepository) ListByCategory(ctx context.Context, categoryID string) ([]product.Product, error) {
	return r.list(ctx,
		`SELECT `+productColumns+` FROM products WHERE NOT blocked AND category_id = $1 ORDER BY created_at DESC`,
		categoryID,
	)
}

func (r *ProductRepository) list(ctx context.Context, query string, args ...any) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	defer rows.Close()

	var products []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// GetByID returns a single product or product.ErrNotFound.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "query product %q", id)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.Wrapf(err, "query product %q", id)
		}
		return nil, product.ErrNotFound
	}
	return scanProduct(rows)
}

// Create inserts a product and fills in its generated id and timestamps.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	images, reviews, err := marshalProductLists(p)
	if err != nil {
		return err
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO products (name, description, price, quantity, unit, status, blocked, product_offer, category_id, images, reviews)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		p.Name, p.Description, p.Price, p.Quantity, p.Unit, p.Status,
		p.Blocked, p.Offer, p.CategoryID, images, reviews,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "insert product")
	}
	return nil
}

// Update rewrites a product's editable fields. Reviews are left untouched;
// they are only appended via AddReview.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return errors.Wrap(err, "marshal images")
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE products
		 SET name = $2, description = $3, price = $4, quantity = $5, unit = $6,
		     status = $7, product_offer = $8, category_id = $9, images = $10,
		     updated_at = now()
		 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Price, p.Quantity, p.Unit,
		p.Status, p.Offer, p.CategoryID, images,
	)
	if err != nil {
		return errors.Wrapf(err, "update product %q", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "delete product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// SetBlocked toggles the admin block override.
func (r *ProductRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET blocked = $2, updated_at = now() WHERE id = $1`,
		id, blocked,
	)
	if err != nil {
		return errors.Wrapf(err, "block product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// RestoreStock atomically adds qty back to the product's stock.
func (r *ProductRepository) RestoreStock(ctx context.Context, id string, qty decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET quantity = quantity + $2, updated_at = now() WHERE id = $1`,
		id, qty,
	)
	if err != nil {
		return errors.Wrapf(err, "restore stock for product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// AddReview appends a review to the product's embedded JSONB review list.
func (r *ProductRepository) AddReview(ctx context.Context, id string, review product.Review) error {
	raw, err := json.Marshal(review)
	if err != nil {
		return errors.Wrap(err, "marshal review")
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE products
		 SET reviews = reviews || jsonb_build_array($2::jsonb), updated_at = now()
		 WHERE id = $1`,
		id, raw,
	)
	if err != nil {
		return errors.Wrapf(err, "add review to product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// HasReviewBy reports whether the user already reviewed the product.
func (r *ProductRepository) HasReviewBy(ctx context.Context, id, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM products p, jsonb_array_elements(p.reviews) AS rv
			WHERE p.id = $1 AND rv->>'userId' = $2
		)`,
		id, userID,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrapf(err, "check review on product %q", id)
	}
	return exists, nil
}

func marshalProductLists(p *product.Product) (images, reviews []byte, err error) {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Reviews == nil {
		p.Reviews = []product.Review{}
	}
	images, err = json.Marshal(p.Images)
	if err != nil {
		return nil, nil, errors.Wrap(err, "marshal images")
	}
	reviews, err = json.Marshal(p.Reviews)
	if err != nil {
		return nil, nil, errors.Wrap(err, "marshal reviews")
	}
	return images, reviews, nil
}

func scanProduct(rows pgx.Rows) (*product.Product, error) {
	var (
		p       product.Product
		images  []byte
		reviews []byte
	)
	err := rows.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.Unit,
		&p.Status, &p.Blocked, &p.Offer, &p.CategoryID, &images, &reviews,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "scan product")
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return nil, errors.Wrap(err, "unmarshal images")
	}
	if err := json.Unmarshal(reviews, &p.Reviews); err != nil {
		return nil, errors.Wrap(err, "unmarshal reviews")
	}
	return &p, nil
}
