package discounts

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/internal/pricing"
	"github.com/harborline/storefront-backend/pkg/db/models"
	"github.com/harborline/storefront-backend/pkg/enums"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/money"
)

// Applied is one discount actually applied to an order, with its
// server-computed amount and the redemption units it will consume.
type Applied struct {
	DiscountID  uuid.UUID
	Code        *string
	AmountCents int
	UsageUnits  int
}

// ValidateInput carries everything the discount validator needs. The claimed
// total is advisory; it is only compared, never persisted.
type ValidateInput struct {
	Lines                []pricing.PricedLine
	SubtotalCents        int
	Codes                []string
	CustomerID           *uuid.UUID
	ClaimedDiscountCents int
}

// Result is the authoritative discount outcome.
type Result struct {
	DiscountCents int
	Applied       []Applied
}

// Validator resolves requested codes, discovers automatic discounts and
// recomputes every amount server-side.
type Validator struct {
	repo Repository
}

// NewValidator builds a discount validator backed by the repository.
func NewValidator(repo Repository) *Validator {
	return &Validator{repo: repo}
}

// WithTx binds the validator's reads to the given transaction.
func (v *Validator) WithTx(tx *gorm.DB) *Validator {
	if tx == nil {
		return v
	}
	return &Validator{repo: v.repo.WithTx(tx)}
}

// FindByIDs loads discount definitions for confirmation-time recomputation.
func (v *Validator) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Discount, error) {
	return v.repo.FindByIDs(ctx, ids)
}

// Validate resolves the requested codes plus any usable automatic discounts,
// recomputes the total and compares it against the client's claim.
func (v *Validator) Validate(ctx context.Context, in ValidateInput) (*Result, error) {
	candidates := make([]models.Discount, 0, len(in.Codes)+1)

	seen := map[string]bool{}
	for _, raw := range in.Codes {
		code := strings.TrimSpace(raw)
		if code == "" {
			continue
		}
		key := strings.ToLower(code)
		if seen[key] {
			continue
		}
		seen[key] = true

		discount, err := v.repo.FindByCode(ctx, code)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up discount code")
		}
		if discount == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDiscountUnknown, "discount code not recognized").
				WithDetails(map[string]any{"code": code})
		}
		if err := v.checkUsable(ctx, discount, in.CustomerID); err != nil {
			return nil, err
		}
		candidates = append(candidates, *discount)
	}

	automatic, err := v.repo.FindAutomaticActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading automatic discounts")
	}
	for _, discount := range automatic {
		// Automatic discounts are not code-gated; an unusable one is simply
		// not applied rather than rejecting the order.
		if usable, err := v.isUsable(ctx, &discount, nil); err != nil {
			return nil, err
		} else if usable {
			candidates = append(candidates, discount)
		}
	}

	applied := Apply(candidates, in.Lines, in.SubtotalCents)

	total := 0
	for _, a := range applied {
		total += a.AmountCents
	}

	if total != in.ClaimedDiscountCents {
		return nil, pkgerrors.New(pkgerrors.CodeDiscountAmountMismatch, "submitted discount total does not match").
			WithDetails(map[string]any{
				"claimed":  money.FormatCents(in.ClaimedDiscountCents),
				"computed": money.FormatCents(total),
			})
	}

	return &Result{DiscountCents: total, Applied: applied}, nil
}

// checkUsable rejects with the typed failure for the first violated
// usability invariant.
func (v *Validator) checkUsable(ctx context.Context, discount *models.Discount, customerID *uuid.UUID) error {
	now := time.Now()
	if !discount.IsActive {
		return pkgerrors.New(pkgerrors.CodeDiscountNotUsable, "discount is not active")
	}
	if discount.StartsAt != nil && now.Before(*discount.StartsAt) {
		return pkgerrors.New(pkgerrors.CodeDiscountNotUsable, "discount is not yet valid")
	}
	if discount.EndsAt != nil && now.After(*discount.EndsAt) {
		return pkgerrors.New(pkgerrors.CodeDiscountNotUsable, "discount has expired")
	}
	if discount.UsageLimit != nil {
		used, err := v.repo.SumUsage(ctx, discount.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summing discount usage")
		}
		if used >= *discount.UsageLimit {
			return pkgerrors.New(pkgerrors.CodeDiscountLimitExceeded, "discount usage limit exceeded")
		}
	}
	if discount.PerCustomerLimit != nil && customerID != nil {
		used, err := v.repo.SumCustomerUsage(ctx, discount.ID, *customerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summing customer discount usage")
		}
		if used >= *discount.PerCustomerLimit {
			return pkgerrors.New(pkgerrors.CodeDiscountCustomerLimit, "discount usage limit for this customer exceeded")
		}
	}
	return nil
}

// isUsable is the non-rejecting variant used for automatic discovery.
// Per-customer limits do not gate automatic discounts.
func (v *Validator) isUsable(ctx context.Context, discount *models.Discount, customerID *uuid.UUID) (bool, error) {
	err := v.checkUsable(ctx, discount, customerID)
	if err == nil {
		return true, nil
	}
	if typed := pkgerrors.As(err); typed != nil && typed.Code() != pkgerrors.CodeInternal {
		return false, nil
	}
	return false, err
}

// Apply computes each discount's amount against the priced lines.
// Percentage discounts are applied first against their (possibly scoped)
// base; fixed amounts then consume what remains, never driving the total
// negative. Discounts that compute to zero are dropped.
func Apply(candidates []models.Discount, lines []pricing.PricedLine, subtotalCents int) []Applied {
	remaining := subtotalCents
	applied := make([]Applied, 0, len(candidates))

	record := func(discount models.Discount, amount int) {
		if amount <= 0 {
			return
		}
		if amount > remaining {
			amount = remaining
		}
		if amount <= 0 {
			return
		}
		remaining -= amount
		applied = append(applied, Applied{
			DiscountID:  discount.ID,
			Code:        discount.Code,
			AmountCents: amount,
			UsageUnits:  usageUnits(discount, lines),
		})
	}

	for _, discount := range candidates {
		if discount.ValueType != enums.DiscountValuePercentage {
			continue
		}
		base := scopedBase(discount, lines, subtotalCents)
		record(discount, money.PercentOf(base, discount.Value))
	}

	for _, discount := range candidates {
		if discount.ValueType != enums.DiscountValueFixedAmount {
			continue
		}
		amount := money.ToCents(discount.Value)
		if discount.Scope == enums.DiscountScopeProducts {
			if base := scopedBase(discount, lines, subtotalCents); amount > base {
				amount = base
			}
		}
		record(discount, amount)
	}

	return applied
}

// scopedBase returns the subtotal slice a discount may act on.
func scopedBase(discount models.Discount, lines []pricing.PricedLine, subtotalCents int) int {
	if discount.Scope != enums.DiscountScopeProducts {
		return subtotalCents
	}
	eligible := map[uuid.UUID]bool{}
	for _, id := range discount.ProductIDs {
		eligible[id] = true
	}
	base := 0
	for _, line := range lines {
		if eligible[line.ProductID] {
			base += line.TotalCents
		}
	}
	return base
}

// usageUnits is the redemption count a confirmation consumes: one unit per
// eligible item for product-scoped discounts, one for order-level discounts.
func usageUnits(discount models.Discount, lines []pricing.PricedLine) int {
	if discount.Scope != enums.DiscountScopeProducts {
		return 1
	}
	eligible := map[uuid.UUID]bool{}
	for _, id := range discount.ProductIDs {
		eligible[id] = true
	}
	units := 0
	for _, line := range lines {
		if eligible[line.ProductID] {
			units += line.Qty
		}
	}
	if units == 0 {
		units = 1
	}
	return units
}
