// Package store is the transactional entity store over Postgres. Repos own
// their transactions; multi-step order and reservation operations commit all
// of their stock adjustments and row mutations or none of them.
package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shopventory/shopventory/internal/shop"
)

// translate maps driver errors onto the domain taxonomy: serialization and
// deadlock failures become retryable conflicts, unique violations become
// validation errors, foreign-key violations become conflicts.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%s: %w", pgErr.Message, shop.ErrConflict)
		case "23505":
			return &shop.ValidationError{Field: pgErr.ConstraintName, Reason: "already exists"}
		case "23503":
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, shop.ErrConflict)
		}
	}
	return err
}
