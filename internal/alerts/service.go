// Package alerts watches the stock.adjusted stream and flags products whose
// quantity fell to or below the configured threshold.
package alerts

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/shopventory/shopventory/internal/kafka"
	"github.com/shopventory/shopventory/internal/shop"
)

const dedupTTL = 48 * time.Hour

type Service struct {
	Redis     *redis.Client
	Threshold int
}

// HandleStockAdjusted is wired as the consumer handler. Events are deduped by
// event id in Redis since the consumer group delivers at least once.
func (s *Service) HandleStockAdjusted(ctx context.Context, m kafkago.Message) error {
	var env shop.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != shop.EventStockAdjusted {
		return nil
	}

	fresh, err := s.Redis.SetNX(ctx, "dedup:alerts:"+env.EventID, 1, dedupTTL).Result()
	if err != nil {
		return err
	}
	if !fresh {
		return nil
	}

	p, err := kafkax.UnwrapPayload[shop.StockAdjustedPayload](env.Payload)
	if err != nil {
		return err
	}

	if p.Quantity <= s.Threshold {
		log.Warn().
			Str("product_id", p.ProductID).
			Int("quantity", p.Quantity).
			Int("delta", p.Delta).
			Int("threshold", s.Threshold).
			Msg("low stock")
	}
	return nil
}
