package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/harborline/storefront-backend/pkg/db/types"
	"github.com/harborline/storefront-backend/pkg/enums"
)

// Discount is a promotion definition. Code discounts are matched by their
// case-insensitive code; automatic discounts apply whenever usable.
type Discount struct {
	ID               uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code             *string                 `gorm:"column:code;uniqueIndex"`
	Name             string                  `gorm:"column:name;not null"`
	Method           enums.DiscountMethod    `gorm:"column:method;type:discount_method;not null"`
	ValueType        enums.DiscountValueType `gorm:"column:value_type;type:discount_value_type;not null"`
	Value            decimal.Decimal         `gorm:"column:value;type:numeric(20,2);not null"`
	Scope            enums.DiscountScope     `gorm:"column:scope;type:discount_scope;not null;default:'order'"`
	ProductIDs       dbtypes.UUIDArray       `gorm:"column:product_ids;type:uuid[]"`
	IsActive         bool                    `gorm:"column:is_active;not null;default:true"`
	StartsAt         *time.Time              `gorm:"column:starts_at"`
	EndsAt           *time.Time              `gorm:"column:ends_at"`
	UsageLimit       *int                    `gorm:"column:usage_limit"`
	PerCustomerLimit *int                    `gorm:"column:per_customer_limit"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
