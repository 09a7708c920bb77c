package orders

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
)

const (
	counterRowID = 1
	// maxOrderNumber is the largest value the fixed-width format can carry.
	maxOrderNumber = 99999999
)

// Allocator produces unique, monotonically increasing order numbers.
// The single counter row is the only serialization point in the pipeline;
// the critical section is increment-and-read, nothing else.
type Allocator struct {
	prefix string
}

// NewAllocator builds an allocator with the configured number prefix.
func NewAllocator(prefix string) *Allocator {
	if prefix == "" {
		prefix = "ORD"
	}
	return &Allocator{prefix: prefix}
}

// Allocate atomically increments the counter and formats the new value.
// Must be called inside the caller's transaction: the incremented row stays
// locked until commit, so no two transactions ever read the same value.
// A rolled-back transaction leaves a gap in the sequence; numbers are never
// reused.
func (a *Allocator) Allocate(ctx context.Context, tx *gorm.DB) (string, error) {
	if tx == nil {
		return "", pkgerrors.New(pkgerrors.CodeAllocationFailure, "transaction required")
	}

	res := tx.WithContext(ctx).Exec(
		"UPDATE order_number_counters SET current_value = current_value + 1, updated_at = ? WHERE id = ?",
		time.Now(), counterRowID,
	)
	if res.Error != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeAllocationFailure, res.Error, "incrementing order number counter")
	}
	if res.RowsAffected == 0 {
		return "", pkgerrors.New(pkgerrors.CodeAllocationFailure, "order number counter row missing")
	}

	var value int64
	err := tx.WithContext(ctx).
		Raw("SELECT current_value FROM order_number_counters WHERE id = ?", counterRowID).
		Scan(&value).Error
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeAllocationFailure, err, "reading order number counter")
	}
	if value > maxOrderNumber {
		return "", pkgerrors.New(pkgerrors.CodeAllocationFailure, "order number space exhausted")
	}

	return fmt.Sprintf("%s-%08d", a.prefix, value), nil
}
