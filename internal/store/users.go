package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopventory/shopventory/internal/shop"
)

type Users struct{ DB *pgxpool.Pool }

func (r *Users) Create(ctx context.Context, u *shop.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO users(id, username, email, password_hash)
		VALUES ($1,$2,$3,$4)`,
		u.ID, u.Username, u.Email, u.PasswordHash)
	return translate(err)
}

func (r *Users) Get(ctx context.Context, id string) (*shop.User, error) {
	var u shop.User
	err := r.DB.QueryRow(ctx, `
		SELECT id, username, email, password_hash FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shop.NotFoundf(shop.EntityUser, id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Users) List(ctx context.Context, skip, limit int) ([]shop.User, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, username, email FROM users ORDER BY username, id OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]shop.User, 0, limit)
	for rows.Next() {
		var u shop.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update applies only non-nil fields; passwordHash is set when non-empty.
func (r *Users) Update(ctx context.Context, id string, username, email *string, passwordHash string) (*shop.User, error) {
	var hash *string
	if passwordHash != "" {
		hash = &passwordHash
	}
	var u shop.User
	err := r.DB.QueryRow(ctx, `
		UPDATE users SET
			username      = COALESCE($2, username),
			email         = COALESCE($3, email),
			password_hash = COALESCE($4, password_hash)
		WHERE id=$1
		RETURNING id, username, email, password_hash`,
		id, username, email, hash).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shop.NotFoundf(shop.EntityUser, id)
	}
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *Users) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if ct.RowsAffected() == 0 {
		return shop.NotFoundf(shop.EntityUser, id)
	}
	return nil
}
