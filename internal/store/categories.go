package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopventory/shopventory/internal/shop"
)

type Categories struct{ DB *pgxpool.Pool }

func (r *Categories) Create(ctx context.Context, c *shop.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.DB.Exec(ctx, `INSERT INTO categories(id, name) VALUES ($1,$2)`, c.ID, c.Name)
	return translate(err)
}

func (r *Categories) Get(ctx context.Context, id string) (*shop.Category, error) {
	var c shop.Category
	err := r.DB.QueryRow(ctx, `SELECT id, name FROM categories WHERE id=$1`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shop.NotFoundf(shop.EntityCategory, id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Categories) List(ctx context.Context, skip, limit int) ([]shop.Category, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name FROM categories ORDER BY name, id OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]shop.Category, 0, limit)
	for rows.Next() {
		var c shop.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Categories) Update(ctx context.Context, id, name string) (*shop.Category, error) {
	var c shop.Category
	err := r.DB.QueryRow(ctx, `UPDATE categories SET name=$2 WHERE id=$1 RETURNING id, name`, id, name).
		Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shop.NotFoundf(shop.EntityCategory, id)
	}
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *Categories) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if ct.RowsAffected() == 0 {
		return shop.NotFoundf(shop.EntityCategory, id)
	}
	return nil
}
