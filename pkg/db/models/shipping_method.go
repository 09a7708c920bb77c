package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingMethod is a flat-rate delivery option offered at checkout.
// TaxRate is the flat percentage applied to the discounted subtotal.
type ShippingMethod struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string          `gorm:"column:code;not null;uniqueIndex"`
	Name      string          `gorm:"column:name;not null"`
	RateCents int             `gorm:"column:rate_cents;not null"`
	TaxRate   decimal.Decimal `gorm:"column:tax_rate;type:numeric(5,2);not null;default:0"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
