package service

import (
	"context"
	"time"

	"github.com/shopventory/shopventory/internal/shop"
)

type CategoryService struct {
	base
	store CategoryStore
}

func NewCategoryService(store CategoryStore, cache Cache, events Publisher, producer string, ttl time.Duration) *CategoryService {
	return &CategoryService{base: newBase(shop.EntityCategory, cache, events, producer, ttl), store: store}
}

func (s *CategoryService) Create(ctx context.Context, name string) (*shop.Category, error) {
	if name == "" {
		return nil, &shop.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	c := &shop.Category{Name: name}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate(ctx, c.ID)
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id, name string) (*shop.Category, error) {
	if name == "" {
		return nil, &shop.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	c, err := s.store.Update(ctx, id, name)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, c.ID)
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (*shop.Category, error) {
	key := shop.EntityKey(shop.EntityCategory, id)
	var cached shop.Category
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, key, c)
	return c, nil
}

func (s *CategoryService) List(ctx context.Context, skip, limit int) ([]shop.Category, error) {
	skip, limit = clampPage(skip, limit)
	key := shop.ListKey(shop.EntityCategory, skip, limit)
	var cached []shop.Category
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
