package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ovenfresh/bakery-api/internal/domain/address"
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

const addressColumns = `id, user_id, name, house_no, street_mark, place, state,
	pincode, phone, created_at, updated_at`

// ListByUser returns the user's saved addresses, newest first.
func (r *AddressRepository) ListByUser(ctx context.Context, userID string) ([]address.Address, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query addresses")
	}
	defer rows.Close()

	var addrs []address.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, *a)
	}
	return addrs, rows.Err()
}

// GetByUser returns one address scoped to the user, or address.ErrNotFound.
func (r *AddressRepository) GetByUser(ctx context.Context, userID, id string) (*address.Address, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "query address %q", id)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.Wrapf(err, "query address %q", id)
		}
		return nil, address.ErrNotFound
	}
	return scanAddress(rows)
}

// Create inserts an address and fills in its generated id and timestamps.
func (r *AddressRepository) Create(ctx context.Context, a *address.Address) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO addresses (user_id, name, house_no, street_mark, place, state, pincode, phone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		a.UserID, a.Name, a.HouseNo, a.StreetMark, a.Place, a.State, a.Pincode, a.Phone,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "insert address")
	}
	return nil
}

// Update rewrites an address, scoped to its owner.
func (r *AddressRepository) Update(ctx context.Context, a *address.Address) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE addresses
		 SET name = $3, house_no = $4, street_mark = $5, place = $6, state = $7,
		     pincode = $8, phone = $9, updated_at = now()
		 WHERE id = $1 AND user_id = $2`,
		a.ID, a.UserID, a.Name, a.HouseNo, a.StreetMark, a.Place, a.State, a.Pincode, a.Phone,
	)
	if err != nil {
		return errors.Wrapf(err, "update address %q", a.ID)
	}
	if tag.RowsAffected() == 0 {
		return address.ErrNotFound
	}
	return nil
}

// Delete removes an address, scoped to its owner.
func (r *AddressRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		return errors.Wrapf(err, "delete address %q", id)
	}
	if tag.RowsAffected() == 0 {
		return address.ErrNotFound
	}
	return nil
}

func scanAddress(rows pgx.Rows) (*address.Address, error) {
	var a address.Address
	err := rows.Scan(
		&a.ID, &a.UserID, &a.Name, &a.HouseNo, &a.StreetMark, &a.Place,
		&a.State, &a.Pincode, &a.Phone, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "scan address")
	}
	return &a, nil
}
