package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a storefront catalog listing.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU         string           `gorm:"column:sku;not null;uniqueIndex"`
	Title       string           `gorm:"column:title;not null"`
	Description *string          `gorm:"column:description"`
	PriceCents  int              `gorm:"column:price_cents;not null"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
