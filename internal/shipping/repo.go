package shipping

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/db/models"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
)

// Repository exposes shipping method reads.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error)
	ListActive(ctx context.Context) ([]models.ShippingMethod, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a shipping repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error) {
	var method models.ShippingMethod
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&method).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipping method not found")
	}
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) ListActive(ctx context.Context) ([]models.ShippingMethod, error) {
	var methods []models.ShippingMethod
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("rate_cents ASC").
		Find(&methods).Error
	if err != nil {
		return nil, err
	}
	return methods, nil
}
