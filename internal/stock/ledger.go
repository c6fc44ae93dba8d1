// Package stock is the ledger that keeps Product.quantity non-negative and
// conserved across order and reservation lifecycle changes. Every quantity
// mutation in the system goes through Adjust.
package stock

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/shopventory/shopventory/internal/shop"
)

// Adjust applies quantity += delta to the product inside the caller's
// transaction. The row is locked (FOR UPDATE) before the sufficiency check so
// two concurrent decrements cannot both validate against a stale quantity.
// Returns the post-adjust quantity.
//
// Fails with shop.ErrNotFound if the product does not exist and with
// *shop.InsufficientStockError if the result would be negative; in both cases
// nothing is written and the caller must roll back.
func Adjust(ctx context.Context, tx pgx.Tx, productID string, delta int) (int, error) {
	var qty int
	err := tx.QueryRow(ctx, `SELECT quantity FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shop.NotFoundf(shop.EntityProduct, productID)
	}
	if err != nil {
		return 0, err
	}

	next := qty + delta
	if next < 0 {
		return 0, &shop.InsufficientStockError{
			ProductID: productID,
			Requested: -delta,
			Available: qty,
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE products SET quantity=$2, updated_at=now() WHERE id=$1`, productID, next); err != nil {
		return 0, err
	}
	return next, nil
}
