package models

import "time"

// OrderNumberCounter is the single-row sequence backing order numbers.
// Incremented atomically inside the order creation transaction.
type OrderNumberCounter struct {
	ID           int       `gorm:"column:id;primaryKey"`
	CurrentValue int64     `gorm:"column:current_value;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (OrderNumberCounter) TableName() string {
	return "order_number_counters"
}
