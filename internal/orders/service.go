package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/internal/discounts"
	"github.com/harborline/storefront-backend/internal/pricing"
	"github.com/harborline/storefront-backend/internal/shipping"
	"github.com/harborline/storefront-backend/pkg/db"
	"github.com/harborline/storefront-backend/pkg/db/models"
	dbtypes "github.com/harborline/storefront-backend/pkg/db/types"
	"github.com/harborline/storefront-backend/pkg/enums"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/logger"
	"github.com/harborline/storefront-backend/pkg/metrics"
	"github.com/harborline/storefront-backend/pkg/money"
	"github.com/harborline/storefront-backend/pkg/outbox"
	"github.com/harborline/storefront-backend/pkg/outbox/payloads"
	"github.com/harborline/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the order lifecycle operations.
type Service interface {
	CreateOrUpdateDraft(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error)
	Confirm(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*OrderListResponse, error)
}

// ServiceParams wires the service's collaborators.
type ServiceParams struct {
	Repo              Repository
	Shipping          shipping.Repository
	Pricing           *pricing.Validator
	Discounts         *discounts.Validator
	Usage             *discounts.Recorder
	Allocator         *Allocator
	TX                txRunner
	Outbox            outboxPublisher
	Logger            *logger.Logger
	Metrics           *metrics.OrderMetrics
	AllocatorAttempts int
	AllocatorBackoff  time.Duration
}

type service struct {
	repo      Repository
	shipping  shipping.Repository
	pricing   *pricing.Validator
	discounts *discounts.Validator
	usage     *discounts.Recorder
	allocator *Allocator
	tx        txRunner
	outbox    outboxPublisher
	logg      *logger.Logger
	metrics   *metrics.OrderMetrics
	attempts  int
	backoff   time.Duration
}

// NewService builds the order creation service.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil || p.Shipping == nil || p.Pricing == nil || p.Discounts == nil ||
		p.Usage == nil || p.Allocator == nil || p.TX == nil || p.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service missing dependencies")
	}
	attempts := p.AllocatorAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := p.AllocatorBackoff
	if backoff <= 0 {
		backoff = 25 * time.Millisecond
	}
	return &service{
		repo:      p.Repo,
		shipping:  p.Shipping,
		pricing:   p.Pricing,
		discounts: p.Discounts,
		usage:     p.Usage,
		allocator: p.Allocator,
		tx:        p.TX,
		outbox:    p.Outbox,
		logg:      p.Logger,
		metrics:   p.Metrics,
		attempts:  attempts,
		backoff:   backoff,
	}, nil
}

// CreateOrUpdateDraft validates the untrusted submission and persists the
// order atomically. A draft matched by cart correlation key is updated in
// place, preserving id and number; otherwise a new number is allocated.
// Allocation failures are retried with backoff before surfacing.
func (s *service) CreateOrUpdateDraft(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	parsed, err := s.parseRequest(req)
	if err != nil {
		s.metrics.IncRejected(string(pkgerrors.As(err).Code()))
		return nil, err
	}

	var resp *OrderResponse
	for attempt := 1; ; attempt++ {
		resp, err = s.createOrUpdateDraftTx(ctx, req, parsed)
		if err == nil {
			return resp, nil
		}
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeAllocationFailure || attempt >= s.attempts {
			if typed != nil {
				s.metrics.IncRejected(string(typed.Code()))
			}
			return nil, err
		}
		s.metrics.IncAllocatorRetry()
		if s.logg != nil {
			s.logg.Warn(ctx, "order number allocation failed, retrying")
		}
		select {
		case <-ctx.Done():
			return nil, pkgerrors.Wrap(pkgerrors.CodeAllocationFailure, ctx.Err(), "allocation cancelled")
		case <-time.After(s.backoff * time.Duration(attempt)):
		}
	}
}

type parsedRequest struct {
	currency        enums.Currency
	lines           []pricing.SubmittedLine
	claimedCents    int
	claimedShipping *int
	claimedTax      *int
}

func (s *service) parseRequest(req CreateOrderRequest) (*parsedRequest, error) {
	currency, err := enums.ParseCurrency(req.Currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}

	lines := make([]pricing.SubmittedLine, 0, len(req.Items))
	for _, item := range req.Items {
		unitCents, err := money.ParseToCents(item.UnitPrice)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price")
		}
		lines = append(lines, pricing.SubmittedLine{
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			Qty:            item.Quantity,
			UnitPriceCents: unitCents,
		})
	}

	claimedCents := 0
	if req.DiscountTotal != "" {
		claimedCents, err = money.ParseToCents(req.DiscountTotal)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount total")
		}
	}
	if claimedCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount total cannot be negative")
	}

	parsed := &parsedRequest{currency: currency, lines: lines, claimedCents: claimedCents}
	if req.ShippingTotal != "" {
		cents, err := money.ParseToCents(req.ShippingTotal)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping total")
		}
		parsed.claimedShipping = &cents
	}
	if req.TaxTotal != "" {
		cents, err := money.ParseToCents(req.TaxTotal)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tax total")
		}
		parsed.claimedTax = &cents
	}
	return parsed, nil
}

func (s *service) createOrUpdateDraftTx(ctx context.Context, req CreateOrderRequest, parsed *parsedRequest) (*OrderResponse, error) {
	var resp *OrderResponse

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		method, err := s.shipping.WithTx(tx).FindActiveByID(ctx, req.ShippingMethodID)
		if err != nil {
			return err
		}

		pricingStart := time.Now()
		priced, err := s.pricing.WithTx(tx).Validate(ctx, parsed.lines)
		s.metrics.ObserveValidation("pricing", time.Since(pricingStart))
		if err != nil {
			return err
		}

		discountStart := time.Now()
		discountResult, err := s.discounts.WithTx(tx).Validate(ctx, discounts.ValidateInput{
			Lines:                priced.Lines,
			SubtotalCents:        priced.SubtotalCents,
			Codes:                req.AppliedDiscountCodes,
			CustomerID:           req.CustomerID,
			ClaimedDiscountCents: parsed.claimedCents,
		})
		s.metrics.ObserveValidation("discounts", time.Since(discountStart))
		if err != nil {
			return err
		}

		shippingCents := method.RateCents
		taxCents := money.PercentOf(priced.SubtotalCents-discountResult.DiscountCents, method.TaxRate)
		totalCents := priced.SubtotalCents - discountResult.DiscountCents + shippingCents + taxCents

		// Client-sent shipping and tax totals are claims; they must agree
		// with what the shipping method row derives.
		if parsed.claimedShipping != nil && *parsed.claimedShipping != shippingCents {
			return pkgerrors.New(pkgerrors.CodeValidation, "submitted shipping total does not match").
				WithDetails(map[string]any{
					"claimed":  money.FormatCents(*parsed.claimedShipping),
					"computed": money.FormatCents(shippingCents),
				})
		}
		if parsed.claimedTax != nil && *parsed.claimedTax != taxCents {
			return pkgerrors.New(pkgerrors.CodeValidation, "submitted tax total does not match").
				WithDetails(map[string]any{
					"claimed":  money.FormatCents(*parsed.claimedTax),
					"computed": money.FormatCents(taxCents),
				})
		}

		appliedIDs := make(dbtypes.UUIDArray, 0, len(discountResult.Applied))
		for _, a := range discountResult.Applied {
			appliedIDs = append(appliedIDs, a.DiscountID)
		}

		var existing *models.Order
		if req.CartCorrelationKey != nil {
			existing, err = repo.FindByCartKey(ctx, *req.CartCorrelationKey)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up draft by cart key")
			}
			if existing != nil && existing.Status != enums.OrderStatusDraft {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "cart has already been converted to a confirmed order")
			}
		}

		items := make([]models.OrderItem, 0, len(priced.Lines))
		for _, line := range priced.Lines {
			items = append(items, models.OrderItem{
				ProductID:      line.ProductID,
				VariantID:      line.VariantID,
				SKU:            line.SKU,
				Title:          line.Title,
				UnitPriceCents: line.UnitPriceCents,
				Qty:            line.Qty,
				TotalCents:     line.TotalCents,
			})
		}

		if existing != nil {
			existing.CustomerID = req.CustomerID
			existing.Currency = parsed.currency
			existing.ShippingMethodID = &method.ID
			existing.SubtotalCents = priced.SubtotalCents
			existing.DiscountCents = discountResult.DiscountCents
			existing.ShippingCents = shippingCents
			existing.TaxCents = taxCents
			existing.TotalCents = totalCents
			existing.AppliedDiscountIDs = appliedIDs

			if err := repo.UpdateHeader(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating draft header")
			}
			if err := repo.ReplaceItems(ctx, existing.ID, items); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replacing draft items")
			}
			existing.Items = items

			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderDraftUpdated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   existing.ID,
				Data: payloads.OrderDraftUpdatedEvent{
					OrderID:    existing.ID,
					Number:     existing.Number,
					TotalCents: existing.TotalCents,
				},
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emitting draft updated event")
			}

			s.metrics.IncCreated("updated")
			r := ToOrderResponse(existing)
			resp = &r
			return nil
		}

		number, err := s.allocator.Allocate(ctx, tx)
		if err != nil {
			return err
		}

		order := models.Order{
			Number:             number,
			Status:             enums.OrderStatusDraft,
			CustomerID:         req.CustomerID,
			CartCorrelationKey: req.CartCorrelationKey,
			Currency:           parsed.currency,
			ShippingMethodID:   &method.ID,
			SubtotalCents:      priced.SubtotalCents,
			DiscountCents:      discountResult.DiscountCents,
			ShippingCents:      shippingCents,
			TaxCents:           taxCents,
			TotalCents:         totalCents,
			AppliedDiscountIDs: appliedIDs,
		}
		if err := repo.Create(ctx, &order); err != nil {
			// Two first submissions for the same cart can both miss the
			// FindByCartKey read; the loser lands on the unique index.
			if req.CartCorrelationKey != nil && db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "another submission for this cart is already in progress")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
		}
		if err := repo.ReplaceItems(ctx, order.ID, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order items")
		}
		order.Items = items

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderDraftCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderDraftCreatedEvent{
				OrderID:    order.ID,
				Number:     order.Number,
				CustomerID: order.CustomerID,
				TotalCents: order.TotalCents,
				Currency:   string(order.Currency),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emitting draft created event")
		}

		s.metrics.IncCreated("new")
		r := ToOrderResponse(&order)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Confirm transitions a draft to confirmed and records discount usage in the
// same transaction. Confirming twice is rejected, not silently accepted.
func (s *service) Confirm(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	var resp *OrderResponse

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		placedAt := time.Now()

		flipped, err := repo.ConfirmDraft(ctx, orderID, placedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirming order")
		}
		if !flipped {
			order, err := repo.FindByID(ctx, orderID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
			}
			if order == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not a draft")
		}

		order, err := repo.FindByID(ctx, orderID)
		if err != nil || order == nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading confirmed order")
		}

		if len(order.AppliedDiscountIDs) > 0 {
			applied, err := s.recomputeApplied(ctx, tx, order)
			if err != nil {
				return err
			}
			recorded, err := s.usage.Record(ctx, tx, order.ID, order.CustomerID, applied)
			if err != nil {
				return err
			}
			for _, usage := range recorded {
				if !usage.Deactivated {
					continue
				}
				if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
					EventType:     enums.EventDiscountDeactivated,
					AggregateType: enums.AggregateDiscount,
					AggregateID:   usage.DiscountID,
					Data: payloads.DiscountDeactivatedEvent{
						DiscountID: usage.DiscountID,
						Code:       usage.Code,
						UsedTotal:  usage.UsedTotal,
					},
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emitting discount deactivated event")
				}
			}
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderConfirmed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderConfirmedEvent{
				OrderID:       order.ID,
				Number:        order.Number,
				CustomerID:    order.CustomerID,
				SubtotalCents: order.SubtotalCents,
				DiscountCents: order.DiscountCents,
				TotalCents:    order.TotalCents,
				DiscountIDs:   order.AppliedDiscountIDs,
				PlacedAt:      placedAt,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emitting order confirmed event")
		}

		s.metrics.IncConfirmed()
		r := ToOrderResponse(order)
		resp = &r
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejected(string(typed.Code()))
		}
		return nil, err
	}
	return resp, nil
}

// recomputeApplied rebuilds the per-discount amounts and usage units from
// the persisted items, so the ledger rows carry the same figures the draft
// was priced with.
func (s *service) recomputeApplied(ctx context.Context, tx *gorm.DB, order *models.Order) ([]discounts.Applied, error) {
	validator := s.discounts.WithTx(tx)
	loaded, err := validator.FindByIDs(ctx, order.AppliedDiscountIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading applied discounts")
	}

	lines := make([]pricing.PricedLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, pricing.PricedLine{
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			SKU:            item.SKU,
			Title:          item.Title,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		})
	}

	return discounts.Apply(loaded, lines, order.SubtotalCents), nil
}

func (s *service) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*OrderListResponse, error) {
	rows, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	resp := &OrderListResponse{}
	for i, row := range rows {
		if i >= limit {
			last := rows[limit-1]
			resp.NextCursor = pagination.EncodeCursor(pagination.Cursor{
				CreatedAt: last.CreatedAt,
				ID:        last.ID,
			})
			break
		}
		resp.Orders = append(resp.Orders, ToOrderResponse(&row))
	}
	return resp, nil
}
