package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shopventory/shopventory/internal/shop"
)

// ReservationService manages time-bounded stock holds. ExpireDue is the sweep
// entry point; it funnels every expired reservation through the same store
// delete routine explicit deletion uses, so stock restoration has exactly one
// implementation.
type ReservationService struct {
	base
	store      ReservationStore
	holdTTL    time.Duration
	sweepBatch int
}

func NewReservationService(store ReservationStore, cache Cache, events Publisher, producer string, cacheTTL, holdTTL time.Duration, sweepBatch int) *ReservationService {
	if holdTTL <= 0 {
		holdTTL = 30 * time.Minute
	}
	if sweepBatch <= 0 {
		sweepBatch = 100
	}
	return &ReservationService{
		base:       newBase(shop.EntityReservation, cache, events, producer, cacheTTL),
		store:      store,
		holdTTL:    holdTTL,
		sweepBatch: sweepBatch,
	}
}

func (s *ReservationService) Create(ctx context.Context, userID, productID string, qty int) (*shop.Reservation, error) {
	if userID == "" {
		return nil, &shop.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if productID == "" {
		return nil, &shop.ValidationError{Field: "product_id", Reason: "must not be empty"}
	}
	if qty <= 0 {
		return nil, &shop.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	res, adjs, err := s.store.Create(ctx, userID, productID, qty, s.holdTTL)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, res.ID)
	s.invalidateStock(ctx, adjs)
	s.publish(shop.EventReservationCreated, shop.TopicReservationCreated, res.ID, reservationPayload(res))
	s.publishStock(adjs)
	return res, nil
}

func (s *ReservationService) Update(ctx context.Context, id string, qty int) (*shop.Reservation, error) {
	if qty <= 0 {
		return nil, &shop.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	res, adjs, err := s.store.Update(ctx, id, qty)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, res.ID)
	s.invalidateStock(ctx, adjs)
	s.publishStock(adjs)
	return res, nil
}

func (s *ReservationService) Delete(ctx context.Context, id string) error {
	res, adjs, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.invalidate(ctx, res.ID)
	s.invalidateStock(ctx, adjs)
	s.publishStock(adjs)
	return nil
}

func (s *ReservationService) Get(ctx context.Context, id string) (*shop.Reservation, error) {
	key := shop.EntityKey(shop.EntityReservation, id)
	var cached shop.Reservation
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	res, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, key, res)
	return res, nil
}

func (s *ReservationService) List(ctx context.Context, skip, limit int) ([]shop.Reservation, error) {
	skip, limit = clampPage(skip, limit)
	key := shop.ListKey(shop.EntityReservation, skip, limit)
	var cached []shop.Reservation
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	out, err := s.store.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, key, out)
	return out, nil
}

// ExpireDue releases every reservation whose expires_at has passed and
// reports how many it released. Safe to run concurrently with request
// traffic and with other sweeps: a reservation deleted underneath us just
// turns up not found and is skipped.
func (s *ReservationService) ExpireDue(ctx context.Context) (int, error) {
	ids, err := s.store.Due(ctx, time.Now().UTC(), s.sweepBatch)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, id := range ids {
		res, adjs, err := s.store.Delete(ctx, id)
		if errors.Is(err, shop.ErrNotFound) {
			continue // lost the race to an explicit delete or another sweep
		}
		if err != nil {
			log.Error().Err(err).Str("reservation_id", id).Msg("expire reservation")
			continue
		}

		s.invalidate(ctx, res.ID)
		s.invalidateStock(ctx, adjs)
		s.publish(shop.EventReservationExpired, shop.TopicReservationExpired, res.ID, reservationPayload(res))
		s.publishStock(adjs)
		released++
	}
	return released, nil
}

func reservationPayload(res *shop.Reservation) shop.ReservationEventPayload {
	return shop.ReservationEventPayload{
		ReservationID: res.ID,
		UserID:        res.UserID,
		ProductID:     res.ProductID,
		Quantity:      res.Quantity,
		ExpiresAt:     res.ExpiresAt,
	}
}
