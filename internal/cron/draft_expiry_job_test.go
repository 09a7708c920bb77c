package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/internal/orders"
	"github.com/harborline/storefront-backend/pkg/db/models"
	"github.com/harborline/storefront-backend/pkg/enums"
	"github.com/harborline/storefront-backend/pkg/logger"
	"github.com/harborline/storefront-backend/pkg/outbox"
	"github.com/harborline/storefront-backend/pkg/pagination"
)

func TestDraftExpiryJobEmitsEventPerOrder(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	stale := []models.Order{
		{ID: uuid.New(), Number: "ORD-00000001", Status: enums.OrderStatusDraft},
		{ID: uuid.New(), Number: "ORD-00000002", Status: enums.OrderStatusDraft},
	}
	repo := &fakeExpiryRepo{batches: [][]models.Order{stale}}
	emitter := &captureEmitter{}
	job := newDraftExpiryJob(t, repo, emitter, 72*time.Hour, 200)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.Add(-72 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if len(emitter.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(emitter.events))
	}
	for i, event := range emitter.events {
		if event.EventType != enums.EventOrderExpired {
			t.Fatalf("unexpected event type %s", event.EventType)
		}
		if event.AggregateID != stale[i].ID {
			t.Fatalf("event %d aggregate mismatch", i)
		}
	}
}

func TestDraftExpiryJobDrainsInBatches(t *testing.T) {
	full := make([]models.Order, 2)
	for i := range full {
		full[i] = models.Order{ID: uuid.New(), Status: enums.OrderStatusDraft}
	}
	rest := []models.Order{{ID: uuid.New(), Status: enums.OrderStatusDraft}}
	repo := &fakeExpiryRepo{batches: [][]models.Order{full, rest}}
	emitter := &captureEmitter{}
	job := newDraftExpiryJob(t, repo, emitter, time.Hour, 2)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.calls != 2 {
		t.Fatalf("expected 2 batch calls, got %d", repo.calls)
	}
	if len(emitter.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(emitter.events))
	}
}

func TestDraftExpiryJobPropagatesError(t *testing.T) {
	repo := &fakeExpiryRepo{err: errors.New("boom")}
	job := newDraftExpiryJob(t, repo, &captureEmitter{}, time.Hour, 10)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newDraftExpiryJob(t *testing.T, repo orders.Repository, emitter outboxEmitter, ttl time.Duration, batch int) *draftExpiryJob {
	t.Helper()
	jobIface, err := NewDraftExpiryJob(DraftExpiryJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		DB:        passthroughTxRunner{},
		Repo:      repo,
		Outbox:    emitter,
		TTL:       ttl,
		BatchSize: batch,
	})
	if err != nil {
		t.Fatalf("NewDraftExpiryJob: %v", err)
	}
	job, ok := jobIface.(*draftExpiryJob)
	if !ok {
		t.Fatalf("expected draftExpiryJob, got %T", jobIface)
	}
	return job
}

type passthroughTxRunner struct{}

func (passthroughTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type captureEmitter struct {
	events []outbox.DomainEvent
}

func (c *captureEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

type fakeExpiryRepo struct {
	batches    [][]models.Order
	calls      int
	lastCutoff time.Time
	err        error
}

func (f *fakeExpiryRepo) WithTx(tx *gorm.DB) orders.Repository { return f }

func (f *fakeExpiryRepo) ExpireDraftsBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	f.calls++
	f.lastCutoff = cutoff
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeExpiryRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return nil, nil
}

func (f *fakeExpiryRepo) FindByCartKey(ctx context.Context, key string) (*models.Order, error) {
	return nil, nil
}

func (f *fakeExpiryRepo) Create(ctx context.Context, order *models.Order) error { return nil }

func (f *fakeExpiryRepo) UpdateHeader(ctx context.Context, order *models.Order) error { return nil }

func (f *fakeExpiryRepo) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	return nil
}

func (f *fakeExpiryRepo) ConfirmDraft(ctx context.Context, id uuid.UUID, placedAt time.Time) (bool, error) {
	return false, nil
}

func (f *fakeExpiryRepo) List(ctx context.Context, filters orders.ListFilters, params pagination.Params) ([]models.Order, error) {
	return nil, nil
}
