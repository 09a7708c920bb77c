package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/harborline/storefront-backend/pkg/db/types"
	"github.com/harborline/storefront-backend/pkg/enums"
)

// Order is the persisted result of a storefront submission. Every monetary
// column holds server-computed values; client-claimed figures never land here.
type Order struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number             string             `gorm:"column:number;not null;uniqueIndex"`
	Status             enums.OrderStatus  `gorm:"column:status;type:order_status;not null;default:'draft'"`
	CustomerID         *uuid.UUID         `gorm:"column:customer_id;type:uuid;index"`
	CartCorrelationKey *string            `gorm:"column:cart_correlation_key;uniqueIndex"`
	Currency           enums.Currency     `gorm:"column:currency;not null;default:'USD'"`
	ShippingMethodID   *uuid.UUID         `gorm:"column:shipping_method_id;type:uuid"`
	SubtotalCents      int                `gorm:"column:subtotal_cents;not null;default:0"`
	DiscountCents      int                `gorm:"column:discount_cents;not null;default:0"`
	ShippingCents      int                `gorm:"column:shipping_cents;not null;default:0"`
	TaxCents           int                `gorm:"column:tax_cents;not null;default:0"`
	TotalCents         int                `gorm:"column:total_cents;not null;default:0"`
	AppliedDiscountIDs dbtypes.UUIDArray  `gorm:"column:applied_discount_ids;type:uuid[]"`
	Items              []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PlacedAt           *time.Time         `gorm:"column:placed_at"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
