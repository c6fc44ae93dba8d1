package service

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shopventory/shopventory/internal/shop"
)

// UserService hashes passwords before they reach the store. The hash is
// opaque to the rest of the system and never serializes.
type UserService struct {
	base
	store UserStore
}

func NewUserService(store UserStore, cache Cache, events Publisher, producer string, ttl time.Duration) *UserService {
	return &UserService{base: newBase(shop.EntityUser, cache, events, producer, ttl), store: store}
}

func (s *UserService) Create(ctx context.Context, username, email, password string) (*shop.User, error) {
	if username == "" {
		return nil, &shop.ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if email == "" {
		return nil, &shop.ValidationError{Field: "email", Reason: "must not be empty"}
	}
	if len(password) < 8 {
		return nil, &shop.ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &shop.User{Username: username, Email: email, PasswordHash: string(hash)}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	s.invalidate(ctx, u.ID)
	return u, nil
}

func (s *UserService) Update(ctx context.Context, id string, upd shop.UserUpdate) (*shop.User, error) {
	var hash string
	if upd.Password != nil {
		if len(*upd.Password) < 8 {
			return nil, &shop.ValidationError{Field: "password", Reason: "must be at least 8 characters"}
		}
		h, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(h)
	}

	u, err := s.store.Update(ctx, id, upd.Username, upd.Email, hash)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, u.ID)
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *UserService) Get(ctx context.Context, id string) (*shop.User, error) {
	key := shop.EntityKey(shop.EntityUser, id)
	var cached shop.User
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	u, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, key, u)
	return u, nil
}

func (s *UserService) List(ctx context.Context, skip, limit int) ([]shop.User, error) {
	skip, limit = clampPage(skip, limit)
	key := shop.ListKey(shop.EntityUser, skip, limit)
	var cached []shop.User
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
