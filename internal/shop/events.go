package shop

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderUpdated       = "OrderUpdated"
	EventOrderDeleted       = "OrderDeleted"
	EventReservationCreated = "ReservationCreated"
	EventReservationExpired = "ReservationExpired"
	EventStockAdjusted      = "StockAdjusted"
)

type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

// ---- Payload types per event ----

type OrderEventPayload struct {
	OrderID string      `json:"order_id"`
	UserID  string      `json:"user_id"`
	Items   []OrderItem `json:"items,omitempty"`
}

type ReservationEventPayload struct {
	ReservationID string    `json:"reservation_id"`
	UserID        string    `json:"user_id"`
	ProductID     string    `json:"product_id"`
	Quantity      int       `json:"quantity"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// StockAdjustedPayload mirrors StockAdjustment; Quantity is post-adjust.
type StockAdjustedPayload struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
	Quantity  int    `json:"quantity"`
}
