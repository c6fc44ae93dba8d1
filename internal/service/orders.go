package service

import (
	"context"
	"time"

	"github.com/shopventory/shopventory/internal/shop"
)

// OrderService manages the order aggregate: all-or-nothing creation, diffed
// updates, stock-restoring deletion, read-through cached reads.
type OrderService struct {
	base
	store OrderStore
}

func NewOrderService(store OrderStore, cache Cache, events Publisher, producer string, ttl time.Duration) *OrderService {
	return &OrderService{base: newBase(shop.EntityOrder, cache, events, producer, ttl), store: store}
}

func validateItems(items []shop.ItemInput) error {
	if len(items) == 0 {
		return &shop.ValidationError{Field: "items", Reason: "must not be empty"}
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ProductID == "" {
			return &shop.ValidationError{Field: "items.product_id", Reason: "must not be empty"}
		}
		if it.Quantity <= 0 {
			return &shop.ValidationError{Field: "items.quantity", Reason: "must be positive"}
		}
		if seen[it.ProductID] {
			return &shop.ValidationError{Field: "items.product_id", Reason: "duplicate product " + it.ProductID}
		}
		seen[it.ProductID] = true
	}
	return nil
}

func (s *OrderService) Create(ctx context.Context, userID string, items []shop.ItemInput) (*shop.Order, error) {
	if userID == "" {
		return nil, &shop.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}

	order, adjs, err := s.store.Create(ctx, userID, items)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, order.ID)
	s.invalidateStock(ctx, adjs)
	s.publish(shop.EventOrderCreated, shop.TopicOrderCreated, order.ID, shop.OrderEventPayload{
		OrderID: order.ID, UserID: order.UserID, Items: order.Items,
	})
	s.publishStock(adjs)
	return order, nil
}

func (s *OrderService) Update(ctx context.Context, id string, items []shop.ItemInput) (*shop.Order, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	order, adjs, err := s.store.Update(ctx, id, items)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, order.ID)
	s.invalidateStock(ctx, adjs)
	s.publish(shop.EventOrderUpdated, shop.TopicOrderUpdated, order.ID, shop.OrderEventPayload{
		OrderID: order.ID, UserID: order.UserID, Items: order.Items,
	})
	s.publishStock(adjs)
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	order, adjs, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.invalidate(ctx, order.ID)
	s.invalidateStock(ctx, adjs)
	s.publish(shop.EventOrderDeleted, shop.TopicOrderDeleted, order.ID, shop.OrderEventPayload{
		OrderID: order.ID, UserID: order.UserID,
	})
	s.publishStock(adjs)
	return nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*shop.Order, error) {
	key := shop.EntityKey(shop.EntityOrder, id)
	var cached shop.Order
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	order, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, key, order)
	return order, nil
}

func (s *OrderService) List(ctx context.Context, skip, limit int) ([]shop.Order, error) {
	skip, limit = clampPage(skip, limit)
	key := shop.ListKey(shop.EntityOrder, skip, limit)
	var cached []shop.Order
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	orders, err := s.store.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, key, orders)
	return orders, nil
}
