package discounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/enums"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
)

func TestRecordAppendsLedgerRow(t *testing.T) {
	t.Parallel()

	discount := percentageDiscount("SAVE10", 10)
	discount.UsageLimit = intPtr(5)
	repo := newStubDiscountRepo(discount)
	repo.usage[discount.ID] = 3
	recorder := NewRecorder(repo)

	customer := uuid.New()
	orderID := uuid.New()
	recorded, err := recorder.Record(context.Background(), &gorm.DB{}, orderID, &customer, []Applied{
		{DiscountID: discount.ID, Code: discount.Code, AmountCents: 500, UsageUnits: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recorded) != 1 || recorded[0].UsedTotal != 4 || recorded[0].Deactivated {
		t.Fatalf("unexpected outcome: %+v", recorded)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected one ledger row, got %d", len(repo.inserted))
	}
	row := repo.inserted[0]
	if row.OrderID != orderID || row.DiscountID != discount.ID || row.UsageCount != 1 || row.AmountCents != 500 {
		t.Fatalf("unexpected ledger row: %+v", row)
	}
	if len(repo.touched) != 1 || repo.touched[0] != discount.ID {
		t.Fatalf("expected the discount row to be locked first")
	}
}

func TestRecordDeactivatesAtLimit(t *testing.T) {
	t.Parallel()

	discount := percentageDiscount("SAVE10", 10)
	discount.UsageLimit = intPtr(5)
	repo := newStubDiscountRepo(discount)
	repo.usage[discount.ID] = 4
	recorder := NewRecorder(repo)

	recorded, err := recorder.Record(context.Background(), &gorm.DB{}, uuid.New(), nil, []Applied{
		{DiscountID: discount.ID, Code: discount.Code, AmountCents: 500, UsageUnits: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !recorded[0].Deactivated || recorded[0].UsedTotal != 5 {
		t.Fatalf("expected deactivation at the limit, got %+v", recorded[0])
	}
	if len(repo.deactivated) != 1 || repo.deactivated[0] != discount.ID {
		t.Fatalf("expected deactivate call, got %+v", repo.deactivated)
	}
}

func TestRecordRejectsOverLimit(t *testing.T) {
	t.Parallel()

	discount := percentageDiscount("SAVE10", 10)
	discount.UsageLimit = intPtr(5)
	repo := newStubDiscountRepo(discount)
	repo.usage[discount.ID] = 5
	recorder := NewRecorder(repo)

	_, err := recorder.Record(context.Background(), &gorm.DB{}, uuid.New(), nil, []Applied{
		{DiscountID: discount.ID, Code: discount.Code, AmountCents: 500, UsageUnits: 1},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDiscountLimitExceeded {
		t.Fatalf("expected usage limit exceeded, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("expected no ledger row on rejection")
	}
}

func TestRecordRejectsPerCustomerOverLimit(t *testing.T) {
	t.Parallel()

	discount := percentageDiscount("ONCE", 10)
	discount.PerCustomerLimit = intPtr(1)
	customer := uuid.New()
	repo := newStubDiscountRepo(discount)
	repo.customerUsage[discount.ID] = map[uuid.UUID]int{customer: 1}
	recorder := NewRecorder(repo)

	_, err := recorder.Record(context.Background(), &gorm.DB{}, uuid.New(), &customer, []Applied{
		{DiscountID: discount.ID, Code: discount.Code, AmountCents: 500, UsageUnits: 1},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDiscountCustomerLimit {
		t.Fatalf("expected per-customer limit, got %v", err)
	}
}

func TestRecordIgnoresPerCustomerLimitForAutomatic(t *testing.T) {
	t.Parallel()

	// Draft-time validation applies automatic discounts without looking at
	// per-customer usage, so confirmation must not reject on it either.
	discount := percentageDiscount("", 5)
	discount.Code = nil
	discount.Method = enums.DiscountMethodAutomatic
	discount.PerCustomerLimit = intPtr(1)
	customer := uuid.New()
	repo := newStubDiscountRepo(discount)
	repo.customerUsage[discount.ID] = map[uuid.UUID]int{customer: 1}
	recorder := NewRecorder(repo)

	recorded, err := recorder.Record(context.Background(), &gorm.DB{}, uuid.New(), &customer, []Applied{
		{DiscountID: discount.ID, AmountCents: 250, UsageUnits: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recorded) != 1 || len(repo.inserted) != 1 {
		t.Fatalf("expected the confirmation to record usage, got %+v", recorded)
	}
}

func TestRecordConsumesUsageUnits(t *testing.T) {
	t.Parallel()

	discount := percentageDiscount("SHIRTS10", 10)
	discount.UsageLimit = intPtr(10)
	repo := newStubDiscountRepo(discount)
	recorder := NewRecorder(repo)

	recorded, err := recorder.Record(context.Background(), &gorm.DB{}, uuid.New(), nil, []Applied{
		{DiscountID: discount.ID, Code: discount.Code, AmountCents: 400, UsageUnits: 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recorded[0].UsedTotal != 3 {
		t.Fatalf("expected 3 units consumed, got %d", recorded[0].UsedTotal)
	}
	if repo.inserted[0].UsageCount != 3 {
		t.Fatalf("expected ledger row with 3 units, got %+v", repo.inserted[0])
	}
}

func TestRecordRequiresTransaction(t *testing.T) {
	t.Parallel()

	recorder := NewRecorder(newStubDiscountRepo())

	_, err := recorder.Record(context.Background(), nil, uuid.New(), nil, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error for nil tx, got %v", err)
	}
}
