package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopventory/shopventory/internal/shop"
)

type Products struct{ DB *pgxpool.Pool }

const productCols = `id, name, description, price_cents, quantity, category_id`

func scanProduct(row pgx.Row) (*shop.Product, error) {
	var p shop.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Quantity, &p.CategoryID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Products) Create(ctx context.Context, p *shop.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, name, description, price_cents, quantity, category_id)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.Name, p.Description, p.PriceCents, p.Quantity, p.CategoryID)
	return translate(err)
}

func (r *Products) Get(ctx context.Context, id string) (*shop.Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shop.NotFoundf(shop.EntityProduct, id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Products) List(ctx context.Context, skip, limit int) ([]shop.Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+productCols+` FROM products
		ORDER BY name, id OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]shop.Product, 0, limit)
	for rows.Next() {
		var p shop.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Quantity, &p.CategoryID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update applies only the fields set in upd. A quantity set here is an
// administrative restock, not a ledger movement.
func (r *Products) Update(ctx context.Context, id string, upd shop.ProductUpdate) (*shop.Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `
		UPDATE products SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			price_cents = COALESCE($4, price_cents),
			quantity    = COALESCE($5, quantity),
			category_id = COALESCE($6, category_id),
			updated_at  = now()
		WHERE id=$1
		RETURNING `+productCols,
		id, upd.Name, upd.Description, upd.PriceCents, upd.Quantity, upd.CategoryID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shop.NotFoundf(shop.EntityProduct, id)
	}
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// Delete fails with a conflict while order items or reservations still hold
// the product (FK restriction).
func (r *Products) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if ct.RowsAffected() == 0 {
		return shop.NotFoundf(shop.EntityProduct, id)
	}
	return nil
}
