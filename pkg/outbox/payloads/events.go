package payloads

import (
	"time"

	"github.com/google/uuid"
)

// OrderDraftCreatedEvent signals a new draft order was persisted.
type OrderDraftCreatedEvent struct {
	OrderID    uuid.UUID  `json:"order_id"`
	Number     string     `json:"number"`
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	TotalCents int        `json:"total_cents"`
	Currency   string     `json:"currency"`
}

// OrderDraftUpdatedEvent signals an existing draft was re-submitted in place.
type OrderDraftUpdatedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	Number     string    `json:"number"`
	TotalCents int       `json:"total_cents"`
}

// OrderConfirmedEvent is emitted when a draft transitions to confirmed.
type OrderConfirmedEvent struct {
	OrderID       uuid.UUID   `json:"order_id"`
	Number        string      `json:"number"`
	CustomerID    *uuid.UUID  `json:"customer_id,omitempty"`
	SubtotalCents int         `json:"subtotal_cents"`
	DiscountCents int         `json:"discount_cents"`
	TotalCents    int         `json:"total_cents"`
	DiscountIDs   []uuid.UUID `json:"discount_ids,omitempty"`
	PlacedAt      time.Time   `json:"placed_at"`
}

// OrderExpiredEvent is emitted when the draft TTL sweep expires an order.
type OrderExpiredEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	Number    string    `json:"number"`
	ExpiredAt time.Time `json:"expired_at"`
}

// DiscountDeactivatedEvent is emitted when a confirmation exhausts a
// discount's global usage limit.
type DiscountDeactivatedEvent struct {
	DiscountID uuid.UUID `json:"discount_id"`
	Code       *string   `json:"code,omitempty"`
	UsedTotal  int       `json:"used_total"`
}
