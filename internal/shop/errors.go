package shop

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped with the entity name and id by the store.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals lock or transaction contention. The whole logical
	// operation may be retried; nothing is retried piecemeal.
	ErrConflict = errors.New("concurrency conflict")
)

// InsufficientStockError rejects a decrement that would drive a product's
// quantity negative. Nothing is mutated when it is returned.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// ValidationError rejects malformed input before it reaches the stock ledger.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NotFoundf(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}
