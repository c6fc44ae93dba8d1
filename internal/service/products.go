package service

import (
	"context"
	"time"

	"github.com/shopventory/shopventory/internal/shop"
)

type ProductService struct {
	base
	store ProductStore
}

func NewProductService(store ProductStore, cache Cache, events Publisher, producer string, ttl time.Duration) *ProductService {
	return &ProductService{base: newBase(shop.EntityProduct, cache, events, producer, ttl), store: store}
}

func (s *ProductService) Create(ctx context.Context, p *shop.Product) (*shop.Product, error) {
	if p.Name == "" {
		return nil, &shop.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if p.PriceCents < 0 {
		return nil, &shop.ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if p.Quantity < 0 {
		return nil, &shop.ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	if p.CategoryID == "" {
		return nil, &shop.ValidationError{Field: "category_id", Reason: "must not be empty"}
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, p.ID)
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id string, upd shop.ProductUpdate) (*shop.Product, error) {
	if upd.PriceCents != nil && *upd.PriceCents < 0 {
		return nil, &shop.ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if upd.Quantity != nil && *upd.Quantity < 0 {
		return nil, &shop.ValidationError{Field: "quantity", Reason: "must not be negative"}
	}

	p, err := s.store.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, p.ID)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*shop.Product, error) {
	key := shop.EntityKey(shop.EntityProduct, id)
	var cached shop.Product
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, key, p)
	return p, nil
}

func (s *ProductService) List(ctx context.Context, skip, limit int) ([]shop.Product, error) {
	skip, limit = clampPage(skip, limit)
	key := shop.ListKey(shop.EntityProduct, skip, limit)
	var cached []shop.Product
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
