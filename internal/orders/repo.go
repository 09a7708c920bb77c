package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/db/models"
	"github.com/harborline/storefront-backend/pkg/enums"
	"github.com/harborline/storefront-backend/pkg/pagination"
)

// Repository exposes the order reads and writes the service depends on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByCartKey(ctx context.Context, key string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	UpdateHeader(ctx context.Context, order *models.Order) error
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error
	ConfirmDraft(ctx context.Context, id uuid.UUID, placedAt time.Time) (bool, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Order, error)
	ExpireDraftsBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByCartKey returns the order correlated to the cart regardless of
// status, so callers can distinguish draft re-use from a converted cart.
func (r *repository) FindByCartKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("cart_correlation_key = ?", key).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// UpdateHeader rewrites the mutable header columns of a draft.
func (r *repository) UpdateHeader(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"customer_id":          order.CustomerID,
			"currency":             order.Currency,
			"shipping_method_id":   order.ShippingMethodID,
			"subtotal_cents":       order.SubtotalCents,
			"discount_cents":       order.DiscountCents,
			"shipping_cents":       order.ShippingCents,
			"tax_cents":            order.TaxCents,
			"total_cents":          order.TotalCents,
			"applied_discount_ids": order.AppliedDiscountIDs,
		}).Error
}

// ReplaceItems swaps the order's line items wholesale. Runs two statements;
// callers must hold a transaction.
func (r *repository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// ConfirmDraft flips draft to confirmed in a single conditional update.
// Returns false when the order is missing or not a draft; callers reload to
// tell the two apart.
func (r *repository) ConfirmDraft(ctx context.Context, id uuid.UUID, placedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusDraft).
		Updates(map[string]any{
			"status":    enums.OrderStatusConfirmed,
			"placed_at": placedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items")

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ExpireDraftsBefore flips stale drafts to expired and returns the affected
// rows so callers can emit events for each.
func (r *repository) ExpireDraftsBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var stale []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.OrderStatusDraft, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&stale).Error
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(stale))
	for _, order := range stale {
		ids = append(ids, order.ID)
	}
	err = r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id IN ? AND status = ?", ids, enums.OrderStatusDraft).
		Update("status", enums.OrderStatusExpired).Error
	if err != nil {
		return nil, err
	}
	return stale, nil
}
