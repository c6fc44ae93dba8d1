// Package service holds the entity services: validation, read-through
// caching, post-commit cache invalidation and event publishing on top of the
// transactional store.
package service

import (
	"context"
	"time"

	"github.com/shopventory/shopventory/internal/shop"
)

// Cache is the cache-store contract (see internal/cache).
type Cache interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Publisher emits domain events after a committed mutation. Implementations
// must not block the request path.
type Publisher interface {
	Publish(topic string, key, value []byte)
}

type OrderStore interface {
	Create(ctx context.Context, userID string, items []shop.ItemInput) (*shop.Order, []shop.StockAdjustment, error)
	Update(ctx context.Context, id string, items []shop.ItemInput) (*shop.Order, []shop.StockAdjustment, error)
	Delete(ctx context.Context, id string) (*shop.Order, []shop.StockAdjustment, error)
	Get(ctx context.Context, id string) (*shop.Order, error)
	List(ctx context.Context, skip, limit int) ([]shop.Order, error)
}

type ReservationStore interface {
	Create(ctx context.Context, userID, productID string, qty int, ttl time.Duration) (*shop.Reservation, []shop.StockAdjustment, error)
	Update(ctx context.Context, id string, qty int) (*shop.Reservation, []shop.StockAdjustment, error)
	Delete(ctx context.Context, id string) (*shop.Reservation, []shop.StockAdjustment, error)
	Get(ctx context.Context, id string) (*shop.Reservation, error)
	List(ctx context.Context, skip, limit int) ([]shop.Reservation, error)
	Due(ctx context.Context, now time.Time, limit int) ([]string, error)
}

type ProductStore interface {
	Create(ctx context.Context, p *shop.Product) error
	Update(ctx context.Context, id string, upd shop.ProductUpdate) (*shop.Product, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*shop.Product, error)
	List(ctx context.Context, skip, limit int) ([]shop.Product, error)
}

type CategoryStore interface {
	Create(ctx context.Context, c *shop.Category) error
	Update(ctx context.Context, id, name string) (*shop.Category, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*shop.Category, error)
	List(ctx context.Context, skip, limit int) ([]shop.Category, error)
}

type UserStore interface {
	Create(ctx context.Context, u *shop.User) error
	Update(ctx context.Context, id string, username, email *string, passwordHash string) (*shop.User, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*shop.User, error)
	List(ctx context.Context, skip, limit int) ([]shop.User, error)
}
