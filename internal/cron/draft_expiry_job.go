package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/internal/orders"
	"github.com/harborline/storefront-backend/pkg/enums"
	"github.com/harborline/storefront-backend/pkg/logger"
	"github.com/harborline/storefront-backend/pkg/outbox"
	"github.com/harborline/storefront-backend/pkg/outbox/payloads"
)

const (
	defaultDraftTTL         = 72 * time.Hour
	defaultDraftExpiryBatch = 200
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// DraftExpiryJobParams configure the stale-draft sweep.
type DraftExpiryJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Repo      orders.Repository
	Outbox    outboxEmitter
	TTL       time.Duration
	BatchSize int
}

// NewDraftExpiryJob builds the cron job that expires drafts older than the TTL.
func NewDraftExpiryJob(params DraftExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultDraftTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultDraftExpiryBatch
	}
	return &draftExpiryJob{
		logg:   params.Logger,
		db:     params.DB,
		repo:   params.Repo,
		outbox: params.Outbox,
		ttl:    ttl,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type draftExpiryJob struct {
	logg   *logger.Logger
	db     txRunner
	repo   orders.Repository
	outbox outboxEmitter
	ttl    time.Duration
	batch  int
	now    func() time.Time
}

func (j *draftExpiryJob) Name() string { return "draft-expiry" }

// Run sweeps stale drafts in bounded batches. Each batch's status flips and
// expiry events commit together; a failed batch leaves earlier batches done.
func (j *draftExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	total := 0
	for {
		expired, err := j.expireBatch(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("draft expiry: %w", err)
		}
		total += expired
		if expired < j.batch {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"expired": total,
	})
	j.logg.Info(logCtx, "draft expiry sweep complete")
	return nil
}

func (j *draftExpiryJob) expireBatch(ctx context.Context, cutoff time.Time) (int, error) {
	count := 0
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repo.WithTx(tx)
		expired, err := repo.ExpireDraftsBefore(ctx, cutoff, j.batch)
		if err != nil {
			return err
		}
		expiredAt := j.now().UTC()
		for _, order := range expired {
			event := outbox.DomainEvent{
				EventType:     enums.EventOrderExpired,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Version:       1,
				OccurredAt:    expiredAt,
				Data: payloads.OrderExpiredEvent{
					OrderID:   order.ID,
					Number:    order.Number,
					ExpiredAt: expiredAt,
				},
			}
			if err := j.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}
		}
		count = len(expired)
		return nil
	})
	return count, err
}
