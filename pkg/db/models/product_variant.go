package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is a purchasable variation of a product. Its price, when
// set, overrides the parent product price.
type ProductVariant struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	SKU        string    `gorm:"column:sku;not null;uniqueIndex"`
	Title      string    `gorm:"column:title;not null"`
	PriceCents *int      `gorm:"column:price_cents"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
