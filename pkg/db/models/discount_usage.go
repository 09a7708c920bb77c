package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscountUsage is an append-only ledger row recorded when a confirmed order
// consumes a discount. UsageCount is the number of redemption units the
// confirmation consumed, one per eligible item for product-scoped discounts.
type DiscountUsage struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DiscountID  uuid.UUID  `gorm:"column:discount_id;type:uuid;not null;index"`
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	CustomerID  *uuid.UUID `gorm:"column:customer_id;type:uuid;index"`
	UsageCount  int        `gorm:"column:usage_count;not null;default:1"`
	AmountCents int        `gorm:"column:amount_cents;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
