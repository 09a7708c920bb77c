package discounts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/db/models"
	"github.com/harborline/storefront-backend/pkg/enums"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
)

// RecordedUsage reports the ledger outcome for one discount.
type RecordedUsage struct {
	DiscountID  uuid.UUID
	Code        *string
	UsedTotal   int
	Deactivated bool
}

// Recorder appends usage-ledger rows at confirmation time.
type Recorder struct {
	repo Repository
}

// NewRecorder builds a usage recorder backed by the repository.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record appends one ledger row per applied discount and deactivates any
// discount whose global usage reaches its limit. Must run inside the same
// transaction as the order's status change; the touch-update serializes
// concurrent confirmations against the same discount so the usage sum can
// never be read stale.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, customerID *uuid.UUID, applied []Applied) ([]RecordedUsage, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	repo := r.repo.WithTx(tx)

	recorded := make([]RecordedUsage, 0, len(applied))
	for _, a := range applied {
		if err := repo.TouchForLock(ctx, a.DiscountID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking discount row")
		}

		discounts, err := repo.FindByIDs(ctx, []uuid.UUID{a.DiscountID})
		if err != nil || len(discounts) == 0 {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading discount")
		}
		discount := discounts[0]

		used, err := repo.SumUsage(ctx, a.DiscountID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summing discount usage")
		}
		if discount.UsageLimit != nil && used+a.UsageUnits > *discount.UsageLimit {
			return nil, pkgerrors.New(pkgerrors.CodeDiscountLimitExceeded, "discount usage limit exceeded")
		}
		// Automatic discounts are validated at draft time without a
		// per-customer check; enforcing one here would strand the draft
		// in a state no confirm attempt can leave.
		if discount.Method != enums.DiscountMethodAutomatic && discount.PerCustomerLimit != nil && customerID != nil {
			customerUsed, err := repo.SumCustomerUsage(ctx, a.DiscountID, *customerID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summing customer discount usage")
			}
			if customerUsed+a.UsageUnits > *discount.PerCustomerLimit {
				return nil, pkgerrors.New(pkgerrors.CodeDiscountCustomerLimit, "discount usage limit for this customer exceeded")
			}
		}

		usage := models.DiscountUsage{
			DiscountID:  a.DiscountID,
			OrderID:     orderID,
			CustomerID:  customerID,
			UsageCount:  a.UsageUnits,
			AmountCents: a.AmountCents,
		}
		if err := repo.InsertUsage(ctx, &usage); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting usage row")
		}

		result := RecordedUsage{
			DiscountID: a.DiscountID,
			Code:       discount.Code,
			UsedTotal:  used + a.UsageUnits,
		}
		if discount.UsageLimit != nil && result.UsedTotal >= *discount.UsageLimit {
			if err := repo.Deactivate(ctx, a.DiscountID); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivating exhausted discount")
			}
			result.Deactivated = true
		}
		recorded = append(recorded, result)
	}

	return recorded, nil
}
