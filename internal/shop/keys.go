package shop

import "fmt"

// Entity names used in cache keys.
const (
	EntityProduct     = "product"
	EntityCategory    = "category"
	EntityUser        = "user"
	EntityOrder       = "order"
	EntityReservation = "reservation"
)

// EntityKey is the cache key for a single entity: "order:{id}".
func EntityKey(entity, id string) string {
	return entity + ":" + id
}

// ListKey is the cache key for one pagination window of a list query:
// "orders:skip=0,limit=10".
func ListKey(entity string, skip, limit int) string {
	return fmt.Sprintf("%ss:skip=%d,limit=%d", entity, skip, limit)
}

// ListPattern matches every cached list window for the entity, so a single
// pattern delete invalidates them all after a write.
func ListPattern(entity string) string {
	return entity + "s:*"
}
