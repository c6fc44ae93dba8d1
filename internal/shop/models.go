package shop

import "time"

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	CategoryID  string `json:"category_id"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// Order owns its items; they are created, updated and deleted together.
type Order struct {
	ID     string      `json:"id"`
	UserID string      `json:"user_id"`
	Items  []OrderItem `json:"items"`
}

type OrderItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"-"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	// Snapshot of the product price when the line was added. Never re-read
	// from the product afterwards.
	PriceAtOrderCents int64 `json:"price_at_order_time"`
}

// Reservation is a temporary hold on stock. Quantity stays subtracted from the
// product until the reservation is deleted, shrunk or swept after ExpiresAt.
type Reservation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// StockAdjustment records a committed quantity change on a product.
// Quantity is the value after the adjustment.
type StockAdjustment struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
	Quantity  int    `json:"quantity"`
}

// ProductUpdate carries optional fields for a partial product update.
type ProductUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price"`
	Quantity    *int    `json:"quantity"`
	CategoryID  *string `json:"category_id"`
}

// UserUpdate carries optional fields for a partial user update. Password is
// the plaintext replacement; it gets hashed before it touches the store.
type UserUpdate struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}
