package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopventory/shopventory/internal/shop"
	"github.com/shopventory/shopventory/internal/stock"
)

type Orders struct{ DB *pgxpool.Pool }

// Create persists the order and all of its items in one transaction. Each
// line decrements stock through the ledger and snapshots the product price at
// this moment. Any failure rolls the whole aggregate back.
func (r *Orders) Create(ctx context.Context, userID string, items []shop.ItemInput) (*shop.Order, []shop.StockAdjustment, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := ensureUser(ctx, tx, userID); err != nil {
		return nil, nil, err
	}

	order := &shop.Order{ID: uuid.NewString(), UserID: userID}
	if _, err := tx.Exec(ctx, `INSERT INTO orders(id, user_id) VALUES ($1,$2)`, order.ID, userID); err != nil {
		return nil, nil, translate(err)
	}

	adjs := make([]shop.StockAdjustment, 0, len(items))
	for _, it := range items {
		left, err := stock.Adjust(ctx, tx, it.ProductID, -it.Quantity)
		if err != nil {
			return nil, nil, translate(err)
		}
		item, err := insertItem(ctx, tx, order.ID, it)
		if err != nil {
			return nil, nil, translate(err)
		}
		order.Items = append(order.Items, *item)
		adjs = append(adjs, shop.StockAdjustment{ProductID: it.ProductID, Delta: -it.Quantity, Quantity: left})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, translate(err)
	}
	return order, adjs, nil
}

// Update diffs the requested item set against the existing one, keyed by
// product id: shared lines adjust stock by old-new, new lines decrement like
// create, absent lines restore their full quantity and are removed. One
// transaction for everything.
func (r *Orders) Update(ctx context.Context, id string, items []shop.ItemInput) (*shop.Order, []shop.StockAdjustment, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order := &shop.Order{ID: id}
	err = tx.QueryRow(ctx, `SELECT user_id FROM orders WHERE id=$1 FOR UPDATE`, id).Scan(&order.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, shop.NotFoundf(shop.EntityOrder, id)
	}
	if err != nil {
		return nil, nil, err
	}

	existing, err := itemsForOrder(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	byProduct := make(map[string]shop.OrderItem, len(existing))
	for _, it := range existing {
		byProduct[it.ProductID] = it
	}
	requested := make(map[string]bool, len(items))

	var adjs []shop.StockAdjustment
	for _, it := range items {
		requested[it.ProductID] = true
		old, ok := byProduct[it.ProductID]
		if !ok {
			// New line: validate and decrement exactly as in create.
			left, err := stock.Adjust(ctx, tx, it.ProductID, -it.Quantity)
			if err != nil {
				return nil, nil, translate(err)
			}
			item, err := insertItem(ctx, tx, id, it)
			if err != nil {
				return nil, nil, translate(err)
			}
			order.Items = append(order.Items, *item)
			adjs = append(adjs, shop.StockAdjustment{ProductID: it.ProductID, Delta: -it.Quantity, Quantity: left})
			continue
		}

		// Shared line: raising the held quantity takes more stock, lowering
		// it gives stock back. The price snapshot from creation is kept.
		if delta := old.Quantity - it.Quantity; delta != 0 {
			left, err := stock.Adjust(ctx, tx, it.ProductID, delta)
			if err != nil {
				return nil, nil, translate(err)
			}
			if _, err := tx.Exec(ctx, `UPDATE order_items SET quantity=$2 WHERE id=$1`, old.ID, it.Quantity); err != nil {
				return nil, nil, translate(err)
			}
			adjs = append(adjs, shop.StockAdjustment{ProductID: it.ProductID, Delta: delta, Quantity: left})
		}
		old.Quantity = it.Quantity
		order.Items = append(order.Items, old)
	}

	for _, old := range existing {
		if requested[old.ProductID] {
			continue
		}
		// Removed line: restore its full quantity, then drop the row.
		left, err := stock.Adjust(ctx, tx, old.ProductID, old.Quantity)
		if err != nil {
			return nil, nil, translate(err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE id=$1`, old.ID); err != nil {
			return nil, nil, translate(err)
		}
		adjs = append(adjs, shop.StockAdjustment{ProductID: old.ProductID, Delta: old.Quantity, Quantity: left})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, translate(err)
	}
	return order, adjs, nil
}

// Delete restores stock for every item and removes the order together with
// its items. Deleting twice fails with not found and never restores twice.
func (r *Orders) Delete(ctx context.Context, id string) (*shop.Order, []shop.StockAdjustment, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order := &shop.Order{ID: id}
	err = tx.QueryRow(ctx, `SELECT user_id FROM orders WHERE id=$1 FOR UPDATE`, id).Scan(&order.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, shop.NotFoundf(shop.EntityOrder, id)
	}
	if err != nil {
		return nil, nil, err
	}

	items, err := itemsForOrder(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	order.Items = items

	adjs := make([]shop.StockAdjustment, 0, len(items))
	for _, it := range items {
		left, err := stock.Adjust(ctx, tx, it.ProductID, it.Quantity)
		if err != nil {
			return nil, nil, translate(err)
		}
		adjs = append(adjs, shop.StockAdjustment{ProductID: it.ProductID, Delta: it.Quantity, Quantity: left})
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, id); err != nil {
		return nil, nil, translate(err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id); err != nil {
		return nil, nil, translate(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, translate(err)
	}
	return order, adjs, nil
}

func (r *Orders) Get(ctx context.Context, id string) (*shop.Order, error) {
	order := &shop.Order{ID: id}
	err := r.DB.QueryRow(ctx, `SELECT user_id FROM orders WHERE id=$1`, id).Scan(&order.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shop.NotFoundf(shop.EntityOrder, id)
	}
	if err != nil {
		return nil, err
	}
	order.Items, err = itemsForOrder(ctx, r.DB, id)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Orders) List(ctx context.Context, skip, limit int) ([]shop.Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_id FROM orders ORDER BY created_at, id OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]shop.Order, 0, limit)
	index := make(map[string]int, limit)
	ids := make([]string, 0, limit)
	for rows.Next() {
		var o shop.Order
		if err := rows.Scan(&o.ID, &o.UserID); err != nil {
			return nil, err
		}
		index[o.ID] = len(out)
		ids = append(ids, o.ID)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	// Eager-load items for the whole page in one query.
	irows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price_at_order_cents
		FROM order_items WHERE order_id = ANY($1) ORDER BY seq`, ids)
	if err != nil {
		return nil, err
	}
	defer irows.Close()
	for irows.Next() {
		var it shop.OrderItem
		if err := irows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.PriceAtOrderCents); err != nil {
			return nil, err
		}
		i := index[it.OrderID]
		out[i].Items = append(out[i].Items, it)
	}
	return out, irows.Err()
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func itemsForOrder(ctx context.Context, q querier, orderID string) ([]shop.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price_at_order_cents
		FROM order_items WHERE order_id=$1 ORDER BY seq`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []shop.OrderItem
	for rows.Next() {
		var it shop.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.PriceAtOrderCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// insertItem snapshots price_at_order_time from the product row, which the
// ledger has already locked in this transaction.
func insertItem(ctx context.Context, tx pgx.Tx, orderID string, in shop.ItemInput) (*shop.OrderItem, error) {
	var price int64
	if err := tx.QueryRow(ctx, `SELECT price_cents FROM products WHERE id=$1`, in.ProductID).Scan(&price); err != nil {
		return nil, err
	}
	item := &shop.OrderItem{
		ID:                uuid.NewString(),
		OrderID:           orderID,
		ProductID:         in.ProductID,
		Quantity:          in.Quantity,
		PriceAtOrderCents: price,
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO order_items(id, order_id, product_id, quantity, price_at_order_cents)
		VALUES ($1,$2,$3,$4,$5)`,
		item.ID, item.OrderID, item.ProductID, item.Quantity, item.PriceAtOrderCents)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func ensureUser(ctx context.Context, tx pgx.Tx, userID string) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, userID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return shop.NotFoundf(shop.EntityUser, userID)
	}
	return nil
}
