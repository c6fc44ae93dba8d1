package service

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopventory/shopventory/internal/shop"
)

// fakeDB is a mutex-guarded in-memory stand-in for the Postgres store. Each
// multi-step operation validates everything before applying anything, so it
// keeps the same all-or-nothing semantics as the real transactions.
type fakeDB struct {
	mu           sync.Mutex
	products     map[string]*shop.Product
	users        map[string]bool
	categories   map[string]*shop.Category
	orders       map[string]*shop.Order
	orderIDs     []string
	reservations map[string]*shop.Reservation
	resIDs       []string
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		products:     make(map[string]*shop.Product),
		users:        make(map[string]bool),
		categories:   make(map[string]*shop.Category),
		orders:       make(map[string]*shop.Order),
		reservations: make(map[string]*shop.Reservation),
	}
}

func (db *fakeDB) seedProduct(id string, price int64, qty int) {
	db.products[id] = &shop.Product{ID: id, Name: "product " + id, PriceCents: price, Quantity: qty, CategoryID: "c1"}
}

func (db *fakeDB) seedUser(id string) { db.users[id] = true }

func (db *fakeDB) quantity(id string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.products[id].Quantity
}

func (db *fakeDB) setPrice(id string, price int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.products[id].PriceCents = price
}

func cloneOrder(o *shop.Order) *shop.Order {
	c := *o
	c.Items = append([]shop.OrderItem(nil), o.Items...)
	return &c
}

// ---- OrderStore ----

type fakeOrderStore struct{ db *fakeDB }

func (f *fakeOrderStore) Create(_ context.Context, userID string, items []shop.ItemInput) (*shop.Order, []shop.StockAdjustment, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()

	if !db.users[userID] {
		return nil, nil, shop.NotFoundf(shop.EntityUser, userID)
	}
	for _, it := range items {
		p, ok := db.products[it.ProductID]
		if !ok {
			return nil, nil, shop.NotFoundf(shop.EntityProduct, it.ProductID)
		}
		if p.Quantity < it.Quantity {
			return nil, nil, &shop.InsufficientStockError{ProductID: it.ProductID, Requested: it.Quantity, Available: p.Quantity}
		}
	}

	order := &shop.Order{ID: uuid.NewString(), UserID: userID}
	var adjs []shop.StockAdjustment
	for _, it := range items {
		p := db.products[it.ProductID]
		p.Quantity -= it.Quantity
		order.Items = append(order.Items, shop.OrderItem{
			ID:                uuid.NewString(),
			OrderID:           order.ID,
			ProductID:         it.ProductID,
			Quantity:          it.Quantity,
			PriceAtOrderCents: p.PriceCents,
		})
		adjs = append(adjs, shop.StockAdjustment{ProductID: it.ProductID, Delta: -it.Quantity, Quantity: p.Quantity})
	}
	db.orders[order.ID] = cloneOrder(order)
	db.orderIDs = append(db.orderIDs, order.ID)
	return order, adjs, nil
}

func (f *fakeOrderStore) Update(_ context.Context, id string, items []shop.ItemInput) (*shop.Order, []shop.StockAdjustment, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()

	old, ok := db.orders[id]
	if !ok {
		return nil, nil, shop.NotFoundf(shop.EntityOrder, id)
	}
	byProduct := make(map[string]shop.OrderItem, len(old.Items))
	for _, it := range old.Items {
		byProduct[it.ProductID] = it
	}
	requested := make(map[string]bool, len(items))

	// Validate every adjustment first; product ids are unique per order so
	// the per-product deltas are independent.
	type move struct {
		pid   string
		delta int
	}
	var moves []move
	for _, it := range items {
		requested[it.ProductID] = true
		p, ok := db.products[it.ProductID]
		if !ok {
			return nil, nil, shop.NotFoundf(shop.EntityProduct, it.ProductID)
		}
		delta := -it.Quantity
		if prev, held := byProduct[it.ProductID]; held {
			delta = prev.Quantity - it.Quantity
		}
		if p.Quantity+delta < 0 {
			return nil, nil, &shop.InsufficientStockError{ProductID: it.ProductID, Requested: -delta, Available: p.Quantity}
		}
		moves = append(moves, move{it.ProductID, delta})
	}
	for _, prev := range old.Items {
		if !requested[prev.ProductID] {
			moves = append(moves, move{prev.ProductID, prev.Quantity})
		}
	}

	var adjs []shop.StockAdjustment
	for _, m := range moves {
		if m.delta == 0 {
			continue
		}
		p := db.products[m.pid]
		p.Quantity += m.delta
		adjs = append(adjs, shop.StockAdjustment{ProductID: m.pid, Delta: m.delta, Quantity: p.Quantity})
	}

	next := &shop.Order{ID: id, UserID: old.UserID}
	for _, it := range items {
		if prev, held := byProduct[it.ProductID]; held {
			prev.Quantity = it.Quantity
			next.Items = append(next.Items, prev)
			continue
		}
		next.Items = append(next.Items, shop.OrderItem{
			ID:                uuid.NewString(),
			OrderID:           id,
			ProductID:         it.ProductID,
			Quantity:          it.Quantity,
			PriceAtOrderCents: db.products[it.ProductID].PriceCents,
		})
	}
	db.orders[id] = cloneOrder(next)
	return next, adjs, nil
}

func (f *fakeOrderStore) Delete(_ context.Context, id string) (*shop.Order, []shop.StockAdjustment, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()

	old, ok := db.orders[id]
	if !ok {
		return nil, nil, shop.NotFoundf(shop.EntityOrder, id)
	}
	var adjs []shop.StockAdjustment
	for _, it := range old.Items {
		p := db.products[it.ProductID]
		p.Quantity += it.Quantity
		adjs = append(adjs, shop.StockAdjustment{ProductID: it.ProductID, Delta: it.Quantity, Quantity: p.Quantity})
	}
	delete(db.orders, id)
	for i, oid := range db.orderIDs {
		if oid == id {
			db.orderIDs = append(db.orderIDs[:i], db.orderIDs[i+1:]...)
			break
		}
	}
	return cloneOrder(old), adjs, nil
}

func (f *fakeOrderStore) Get(_ context.Context, id string) (*shop.Order, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()
	o, ok := db.orders[id]
	if !ok {
		return nil, shop.NotFoundf(shop.EntityOrder, id)
	}
	return cloneOrder(o), nil
}

func (f *fakeOrderStore) List(_ context.Context, skip, limit int) ([]shop.Order, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]shop.Order, 0, limit)
	for i := skip; i < len(db.orderIDs) && len(out) < limit; i++ {
		out = append(out, *cloneOrder(db.orders[db.orderIDs[i]]))
	}
	return out, nil
}

// ---- ReservationStore ----

type fakeReservationStore struct{ db *fakeDB }

func (f *fakeReservationStore) Create(_ context.Context, userID, productID string, qty int, ttl time.Duration) (*shop.Reservation, []shop.StockAdjustment, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()

	if !db.users[userID] {
		return nil, nil, shop.NotFoundf(shop.EntityUser, userID)
	}
	p, ok := db.products[productID]
	if !ok {
		return nil, nil, shop.NotFoundf(shop.EntityProduct, productID)
	}
	if p.Quantity < qty {
		return nil, nil, &shop.InsufficientStockError{ProductID: productID, Requested: qty, Available: p.Quantity}
	}

	p.Quantity -= qty
	res := &shop.Reservation{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	cp := *res
	db.reservations[res.ID] = &cp
	db.resIDs = append(db.resIDs, res.ID)
	return res, []shop.StockAdjustment{{ProductID: productID, Delta: -qty, Quantity: p.Quantity}}, nil
}

func (f *fakeReservationStore) Update(_ context.Context, id string, qty int) (*shop.Reservation, []shop.StockAdjustment, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()

	res, ok := db.reservations[id]
	if !ok {
		return nil, nil, shop.NotFoundf(shop.EntityReservation, id)
	}
	p := db.products[res.ProductID]
	var adjs []shop.StockAdjustment
	if delta := res.Quantity - qty; delta != 0 {
		if p.Quantity+delta < 0 {
			return nil, nil, &shop.InsufficientStockError{ProductID: res.ProductID, Requested: -delta, Available: p.Quantity}
		}
		p.Quantity += delta
		res.Quantity = qty
		adjs = append(adjs, shop.StockAdjustment{ProductID: res.ProductID, Delta: delta, Quantity: p.Quantity})
	}
	cp := *res
	return &cp, adjs, nil
}

func (f *fakeReservationStore) Delete(_ context.Context, id string) (*shop.Reservation, []shop.StockAdjustment, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()

	res, ok := db.reservations[id]
	if !ok {
		return nil, nil, shop.NotFoundf(shop.EntityReservation, id)
	}
	p := db.products[res.ProductID]
	p.Quantity += res.Quantity
	delete(db.reservations, id)
	for i, rid := range db.resIDs {
		if rid == id {
			db.resIDs = append(db.resIDs[:i], db.resIDs[i+1:]...)
			break
		}
	}
	cp := *res
	return &cp, []shop.StockAdjustment{{ProductID: res.ProductID, Delta: res.Quantity, Quantity: p.Quantity}}, nil
}

func (f *fakeReservationStore) Get(_ context.Context, id string) (*shop.Reservation, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()
	res, ok := db.reservations[id]
	if !ok {
		return nil, shop.NotFoundf(shop.EntityReservation, id)
	}
	cp := *res
	return &cp, nil
}

func (f *fakeReservationStore) List(_ context.Context, skip, limit int) ([]shop.Reservation, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]shop.Reservation, 0, limit)
	for i := skip; i < len(db.resIDs) && len(out) < limit; i++ {
		out = append(out, *db.reservations[db.resIDs[i]])
	}
	return out, nil
}

func (f *fakeReservationStore) Due(_ context.Context, now time.Time, limit int) ([]string, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()
	var ids []string
	for _, id := range db.resIDs {
		if len(ids) == limit {
			break
		}
		if !db.reservations[id].ExpiresAt.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ---- ProductStore ----

type fakeProductStore struct{ db *fakeDB }

func (f *fakeProductStore) Create(_ context.Context, p *shop.Product) error {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	db.products[p.ID] = &cp
	return nil
}

func (f *fakeProductStore) Update(_ context.Context, id string, upd shop.ProductUpdate) (*shop.Product, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.products[id]
	if !ok {
		return nil, shop.NotFoundf(shop.EntityProduct, id)
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.PriceCents != nil {
		p.PriceCents = *upd.PriceCents
	}
	if upd.Quantity != nil {
		p.Quantity = *upd.Quantity
	}
	if upd.CategoryID != nil {
		p.CategoryID = *upd.CategoryID
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductStore) Delete(_ context.Context, id string) error {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.products[id]; !ok {
		return shop.NotFoundf(shop.EntityProduct, id)
	}
	delete(db.products, id)
	return nil
}

func (f *fakeProductStore) Get(_ context.Context, id string) (*shop.Product, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.products[id]
	if !ok {
		return nil, shop.NotFoundf(shop.EntityProduct, id)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductStore) List(_ context.Context, skip, limit int) ([]shop.Product, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]shop.Product, 0, len(db.products))
	for _, p := range db.products {
		out = append(out, *p)
	}
	if skip > len(out) {
		skip = len(out)
	}
	end := skip + limit
	if end > len(out) {
		end = len(out)
	}
	return out[skip:end], nil
}

// ---- CategoryStore ----

type fakeCategoryStore struct{ db *fakeDB }

func (f *fakeCategoryStore) Create(_ context.Context, c *shop.Category) error {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	cp := *c
	db.categories[c.ID] = &cp
	return nil
}

func (f *fakeCategoryStore) Update(_ context.Context, id, name string) (*shop.Category, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.categories[id]
	if !ok {
		return nil, shop.NotFoundf(shop.EntityCategory, id)
	}
	c.Name = name
	cp := *c
	return &cp, nil
}

func (f *fakeCategoryStore) Delete(_ context.Context, id string) error {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.categories[id]; !ok {
		return shop.NotFoundf(shop.EntityCategory, id)
	}
	delete(db.categories, id)
	return nil
}

func (f *fakeCategoryStore) Get(_ context.Context, id string) (*shop.Category, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.categories[id]
	if !ok {
		return nil, shop.NotFoundf(shop.EntityCategory, id)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCategoryStore) List(_ context.Context, skip, limit int) ([]shop.Category, error) {
	db := f.db
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]shop.Category, 0, len(db.categories))
	for _, c := range db.categories {
		out = append(out, *c)
	}
	if skip > len(out) {
		skip = len(out)
	}
	end := skip + limit
	if end > len(out) {
		end = len(out)
	}
	return out[skip:end], nil
}

// ---- UserStore ----

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*shop.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*shop.User)}
}

func (f *fakeUserStore) Create(_ context.Context, u *shop.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserStore) Update(_ context.Context, id string, username, email *string, passwordHash string) (*shop.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, shop.NotFoundf(shop.EntityUser, id)
	}
	if username != nil {
		u.Username = *username
	}
	if email != nil {
		u.Email = *email
	}
	if passwordHash != "" {
		u.PasswordHash = passwordHash
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return shop.NotFoundf(shop.EntityUser, id)
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) Get(_ context.Context, id string) (*shop.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, shop.NotFoundf(shop.EntityUser, id)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) List(_ context.Context, skip, limit int) ([]shop.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]shop.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	if skip > len(out) {
		skip = len(out)
	}
	end := skip + limit
	if end > len(out) {
		end = len(out)
	}
	return out[skip:end], nil
}

// ---- Cache & publisher ----

type fakeCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newFakeCache() *fakeCache { return &fakeCache{m: make(map[string][]byte)} }

func (c *fakeCache) Get(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *fakeCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = b
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.m, k)
	}
	return nil
}

func (c *fakeCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.m {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.m, k)
		}
	}
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.m[key]
	return ok
}

type fakePublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *fakePublisher) Publish(topic string, _, _ []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
}

func (p *fakePublisher) published(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.topics {
		if t == topic {
			n++
		}
	}
	return n
}
