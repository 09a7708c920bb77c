package discounts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/db/models"
	"github.com/harborline/storefront-backend/pkg/enums"
)

// Repository exposes the explicit discount reads and ledger writes the
// validators depend on. No relationship traversal; every query is auditable.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.Discount, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Discount, error)
	FindAutomaticActive(ctx context.Context) ([]models.Discount, error)
	SumUsage(ctx context.Context, discountID uuid.UUID) (int, error)
	SumCustomerUsage(ctx context.Context, discountID uuid.UUID, customerID uuid.UUID) (int, error)
	TouchForLock(ctx context.Context, discountID uuid.UUID) error
	InsertUsage(ctx context.Context, usage *models.DiscountUsage) error
	Deactivate(ctx context.Context, discountID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a discounts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindByCode matches active code discounts case-insensitively. Returns
// (nil, nil) when no discount carries the code.
func (r *repository) FindByCode(ctx context.Context, code string) (*models.Discount, error) {
	var discount models.Discount
	err := r.db.WithContext(ctx).
		Where("lower(code) = lower(?)", code).
		Where("method = ?", enums.DiscountMethodCode).
		First(&discount).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Discount, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var discounts []models.Discount
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&discounts).Error
	if err != nil {
		return nil, err
	}
	return discounts, nil
}

func (r *repository) FindAutomaticActive(ctx context.Context) ([]models.Discount, error) {
	var discounts []models.Discount
	err := r.db.WithContext(ctx).
		Where("method = ? AND is_active = ?", enums.DiscountMethodAutomatic, true).
		Order("created_at ASC").
		Find(&discounts).Error
	if err != nil {
		return nil, err
	}
	return discounts, nil
}

// SumUsage aggregates usage_count across ledger rows, not row count.
func (r *repository) SumUsage(ctx context.Context, discountID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.DiscountUsage{}).
		Where("discount_id = ?", discountID).
		Select("COALESCE(SUM(usage_count), 0)").
		Scan(&total).Error
	return int(total), err
}

func (r *repository) SumCustomerUsage(ctx context.Context, discountID uuid.UUID, customerID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.DiscountUsage{}).
		Where("discount_id = ? AND customer_id = ?", discountID, customerID).
		Select("COALESCE(SUM(usage_count), 0)").
		Scan(&total).Error
	return int(total), err
}

// TouchForLock writes the discount row so the surrounding transaction holds
// its row lock before the usage sum is read. Two concurrent confirmations
// against the same discount serialize here.
func (r *repository) TouchForLock(ctx context.Context, discountID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Discount{}).
		Where("id = ?", discountID).
		Update("updated_at", time.Now()).Error
}

func (r *repository) InsertUsage(ctx context.Context, usage *models.DiscountUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

func (r *repository) Deactivate(ctx context.Context, discountID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Discount{}).
		Where("id = ?", discountID).
		Update("is_active", false).Error
}
