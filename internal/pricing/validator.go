package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/internal/catalog"
	"github.com/harborline/storefront-backend/pkg/db/models"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
)

// SubmittedLine is one cart line as claimed by the client. UnitPriceCents is
// advisory; it is only ever compared against the catalog, never persisted.
type SubmittedLine struct {
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	Qty            int
	UnitPriceCents int
}

// PricedLine is a line whose price has been re-derived from the catalog.
type PricedLine struct {
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	SKU            string
	Title          string
	Qty            int
	UnitPriceCents int
	TotalCents     int
}

// Result carries the authoritative pricing outcome.
type Result struct {
	Lines         []PricedLine
	SubtotalCents int
}

// Validator re-derives line prices from the catalog and rejects any
// submission whose claimed unit prices disagree.
type Validator struct {
	catalog catalog.Repository
}

// NewValidator builds a price validator backed by the catalog repository.
func NewValidator(repo catalog.Repository) *Validator {
	return &Validator{catalog: repo}
}

// WithTx binds the validator's catalog reads to the given transaction.
func (v *Validator) WithTx(tx *gorm.DB) *Validator {
	if tx == nil {
		return v
	}
	return &Validator{catalog: v.catalog.WithTx(tx)}
}

// Validate checks every submitted line against canonical catalog prices.
// Any single mismatch aborts the whole submission.
func (v *Validator) Validate(ctx context.Context, lines []SubmittedLine) (*Result, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	productIDs := make([]uuid.UUID, 0, len(lines))
	variantIDs := make([]uuid.UUID, 0, len(lines))
	for i, line := range lines {
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: quantity must be positive", i))
		}
		productIDs = append(productIDs, line.ProductID)
		if line.VariantID != nil {
			variantIDs = append(variantIDs, *line.VariantID)
		}
	}

	products, err := v.catalog.FindProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading catalog products")
	}
	productsByID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}

	variantsByID := make(map[uuid.UUID]models.ProductVariant, len(variantIDs))
	if len(variantIDs) > 0 {
		variants, err := v.catalog.FindVariantsByIDs(ctx, variantIDs)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading catalog variants")
		}
		for _, variant := range variants {
			variantsByID[variant.ID] = variant
		}
	}

	result := &Result{Lines: make([]PricedLine, 0, len(lines))}
	for i, line := range lines {
		product, ok := productsByID[line.ProductID]
		if !ok || !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("line %d: product not available", i))
		}

		canonical := product.PriceCents
		sku := product.SKU
		title := product.Title
		if line.VariantID != nil {
			variant, ok := variantsByID[*line.VariantID]
			if !ok || !variant.IsActive || variant.ProductID != product.ID {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("line %d: variant not available", i))
			}
			if variant.PriceCents != nil {
				canonical = *variant.PriceCents
			}
			sku = variant.SKU
			title = fmt.Sprintf("%s / %s", product.Title, variant.Title)
		}

		if line.UnitPriceCents != canonical {
			// The mismatch identifies the line but not the canonical delta.
			return nil, pkgerrors.New(pkgerrors.CodePriceMismatch, "submitted unit price does not match catalog").
				WithDetails(map[string]any{"line": i, "product_id": line.ProductID.String()})
		}

		total := canonical * line.Qty
		result.Lines = append(result.Lines, PricedLine{
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			SKU:            sku,
			Title:          title,
			Qty:            line.Qty,
			UnitPriceCents: canonical,
			TotalCents:     total,
		})
		result.SubtotalCents += total
	}

	return result, nil
}
