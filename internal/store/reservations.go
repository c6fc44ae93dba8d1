package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopventory/shopventory/internal/shop"
	"github.com/shopventory/shopventory/internal/stock"
)

type Reservations struct{ DB *pgxpool.Pool }

func (r *Reservations) Create(ctx context.Context, userID, productID string, qty int, ttl time.Duration) (*shop.Reservation, []shop.StockAdjustment, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := ensureUser(ctx, tx, userID); err != nil {
		return nil, nil, err
	}

	left, err := stock.Adjust(ctx, tx, productID, -qty)
	if err != nil {
		return nil, nil, translate(err)
	}

	res := &shop.Reservation{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO reservations(id, user_id, product_id, quantity, expires_at)
		VALUES ($1,$2,$3,$4,$5)`,
		res.ID, res.UserID, res.ProductID, res.Quantity, res.ExpiresAt)
	if err != nil {
		return nil, nil, translate(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, translate(err)
	}
	return res, []shop.StockAdjustment{{ProductID: productID, Delta: -qty, Quantity: left}}, nil
}

// Update adjusts stock by old-new when the held quantity changes, same policy
// as order update.
func (r *Reservations) Update(ctx context.Context, id string, qty int) (*shop.Reservation, []shop.StockAdjustment, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var res shop.Reservation
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, product_id, quantity, expires_at
		FROM reservations WHERE id=$1 FOR UPDATE`, id).
		Scan(&res.ID, &res.UserID, &res.ProductID, &res.Quantity, &res.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, shop.NotFoundf(shop.EntityReservation, id)
	}
	if err != nil {
		return nil, nil, err
	}

	var adjs []shop.StockAdjustment
	if delta := res.Quantity - qty; delta != 0 {
		left, err := stock.Adjust(ctx, tx, res.ProductID, delta)
		if err != nil {
			return nil, nil, translate(err)
		}
		if _, err := tx.Exec(ctx, `UPDATE reservations SET quantity=$2 WHERE id=$1`, id, qty); err != nil {
			return nil, nil, translate(err)
		}
		res.Quantity = qty
		adjs = append(adjs, shop.StockAdjustment{ProductID: res.ProductID, Delta: delta, Quantity: left})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, translate(err)
	}
	return &res, adjs, nil
}

// Delete is the single authoritative stock-restoration path, shared by
// explicit deletion and the expiry sweep. The row is removed first
// (DELETE ... RETURNING) so a concurrent delete of the same reservation sees
// not found and cannot restore a second time.
func (r *Reservations) Delete(ctx context.Context, id string) (*shop.Reservation, []shop.StockAdjustment, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var res shop.Reservation
	err = tx.QueryRow(ctx, `
		DELETE FROM reservations WHERE id=$1
		RETURNING id, user_id, product_id, quantity, expires_at`, id).
		Scan(&res.ID, &res.UserID, &res.ProductID, &res.Quantity, &res.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, shop.NotFoundf(shop.EntityReservation, id)
	}
	if err != nil {
		return nil, nil, translate(err)
	}

	left, err := stock.Adjust(ctx, tx, res.ProductID, res.Quantity)
	if err != nil {
		return nil, nil, translate(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, translate(err)
	}
	return &res, []shop.StockAdjustment{{ProductID: res.ProductID, Delta: res.Quantity, Quantity: left}}, nil
}

func (r *Reservations) Get(ctx context.Context, id string) (*shop.Reservation, error) {
	var res shop.Reservation
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, product_id, quantity, expires_at
		FROM reservations WHERE id=$1`, id).
		Scan(&res.ID, &res.UserID, &res.ProductID, &res.Quantity, &res.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shop.NotFoundf(shop.EntityReservation, id)
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *Reservations) List(ctx context.Context, skip, limit int) ([]shop.Reservation, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_id, product_id, quantity, expires_at
		FROM reservations ORDER BY expires_at, id OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]shop.Reservation, 0, limit)
	for rows.Next() {
		var res shop.Reservation
		if err := rows.Scan(&res.ID, &res.UserID, &res.ProductID, &res.Quantity, &res.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Due lists reservations whose expires_at has passed, oldest first.
func (r *Reservations) Due(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id FROM reservations WHERE expires_at <= $1 ORDER BY expires_at LIMIT $2`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
