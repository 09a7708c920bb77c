package orders

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
)

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{8}$`)

func setupCounterDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	schema := `
CREATE TABLE IF NOT EXISTS order_number_counters (
  id INTEGER PRIMARY KEY,
  current_value INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec(`INSERT INTO order_number_counters (id, current_value) VALUES (1, 0)`).Error)
	return db
}

func TestAllocateSequential(t *testing.T) {
	db := setupCounterDB(t, "allocator_sequential")
	allocator := NewAllocator("ORD")

	var first, second string
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		first, err = allocator.Allocate(context.Background(), tx)
		return err
	}))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		second, err = allocator.Allocate(context.Background(), tx)
		return err
	}))

	assert.Equal(t, "ORD-00000001", first)
	assert.Equal(t, "ORD-00000002", second)
}

func TestAllocateConcurrentUniqueness(t *testing.T) {
	db := setupCounterDB(t, "allocator_concurrent")
	allocator := NewAllocator("ORD")

	const workers = 32

	var (
		mu      sync.Mutex
		numbers = make(map[string]struct{}, workers)
		wg      sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				number, err := allocator.Allocate(context.Background(), tx)
				if err != nil {
					return err
				}
				mu.Lock()
				numbers[number] = struct{}{}
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Map keys collapse duplicates; full cardinality means no two
	// allocations ever observed the same counter value.
	assert.Len(t, numbers, workers)
	for number := range numbers {
		assert.Regexp(t, orderNumberPattern, number)
	}
}

func TestAllocateRolledBackNumberIsNotReused(t *testing.T) {
	db := setupCounterDB(t, "allocator_rollback")
	allocator := NewAllocator("ORD")

	sentinel := fmt.Errorf("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := allocator.Allocate(context.Background(), tx); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	var number string
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		number, err = allocator.Allocate(context.Background(), tx)
		return err
	}))

	// The increment rolled back with the transaction, so the number was
	// never committed anywhere and may be handed out again safely.
	assert.Equal(t, "ORD-00000001", number)
}

func requireAllocationFailure(t *testing.T, err error) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, pkgerrors.CodeAllocationFailure, typed.Code())
}

func TestAllocateCustomPrefix(t *testing.T) {
	db := setupCounterDB(t, "allocator_prefix")
	allocator := NewAllocator("HL")

	var number string
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		number, err = allocator.Allocate(context.Background(), tx)
		return err
	}))
	assert.Equal(t, "HL-00000001", number)
}

func TestAllocateMissingCounterRow(t *testing.T) {
	db := setupCounterDB(t, "allocator_missing_row")
	require.NoError(t, db.Exec(`DELETE FROM order_number_counters`).Error)
	allocator := NewAllocator("ORD")

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := allocator.Allocate(context.Background(), tx)
		return err
	})
	requireAllocationFailure(t, err)
}

func TestAllocateExhaustedSpace(t *testing.T) {
	db := setupCounterDB(t, "allocator_exhausted")
	require.NoError(t, db.Exec(`UPDATE order_number_counters SET current_value = 99999999 WHERE id = 1`).Error)
	allocator := NewAllocator("ORD")

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := allocator.Allocate(context.Background(), tx)
		return err
	})
	requireAllocationFailure(t, err)
}

func TestAllocateRequiresTransaction(t *testing.T) {
	t.Parallel()

	allocator := NewAllocator("ORD")
	_, err := allocator.Allocate(context.Background(), nil)
	requireAllocationFailure(t, err)
}
