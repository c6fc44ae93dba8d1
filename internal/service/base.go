package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shopventory/shopventory/internal/shop"
)

// base carries the caching and eventing behavior every entity service shares.
// Services embed it by value; entity-specific logic stays in the service.
type base struct {
	entity   string
	cache    Cache
	events   Publisher
	producer string
	ttl      time.Duration
}

func newBase(entity string, c Cache, ev Publisher, producer string, ttl time.Duration) base {
	return base{entity: entity, cache: c, events: ev, producer: producer, ttl: ttl}
}

// cacheGet is best-effort: a cache error degrades to a miss.
func (b base) cacheGet(ctx context.Context, key string, out any) bool {
	ok, err := b.cache.Get(ctx, key, out)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	return ok
}

func (b base) cachePut(ctx context.Context, key string, v any) {
	if err := b.cache.Set(ctx, key, v, b.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// invalidate runs strictly after commit: the entity key plus every cached
// list window of this entity type.
func (b base) invalidate(ctx context.Context, ids ...string) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, shop.EntityKey(b.entity, id))
	}
	if err := b.cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Str("entity", b.entity).Msg("cache invalidation failed")
	}
	if err := b.cache.DeleteByPattern(ctx, shop.ListPattern(b.entity)); err != nil {
		log.Warn().Err(err).Str("entity", b.entity).Msg("list cache invalidation failed")
	}
}

// invalidateStock drops the cached snapshots of every product a committed
// operation adjusted, and all product list windows.
func (b base) invalidateStock(ctx context.Context, adjs []shop.StockAdjustment) {
	if len(adjs) == 0 {
		return
	}
	keys := make([]string, 0, len(adjs))
	for _, a := range adjs {
		keys = append(keys, shop.EntityKey(shop.EntityProduct, a.ProductID))
	}
	if err := b.cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Msg("product cache invalidation failed")
	}
	if err := b.cache.DeleteByPattern(ctx, shop.ListPattern(shop.EntityProduct)); err != nil {
		log.Warn().Err(err).Msg("product list cache invalidation failed")
	}
}

func (b base) publish(eventType, topic, key string, payload any) {
	if b.events == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("marshal event payload")
		return
	}
	env := shop.Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     b.producer,
		Payload:      raw,
	}
	value, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("marshal event envelope")
		return
	}
	b.events.Publish(topic, shop.PartitionKey(key), value)
}

func (b base) publishStock(adjs []shop.StockAdjustment) {
	for _, a := range adjs {
		b.publish(shop.EventStockAdjusted, shop.TopicStockAdjusted, a.ProductID, shop.StockAdjustedPayload{
			ProductID: a.ProductID,
			Delta:     a.Delta,
			Quantity:  a.Quantity,
		})
	}
}

// clampPage normalizes skip/limit to the windows list caching keys on.
func clampPage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return skip, limit
}
