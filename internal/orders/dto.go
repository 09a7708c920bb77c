package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborline/storefront-backend/pkg/db/models"
	"github.com/harborline/storefront-backend/pkg/enums"
	"github.com/harborline/storefront-backend/pkg/money"
)

// CreateOrderItemRequest is one submitted cart line. Prices are decimal
// strings in major units and are advisory only.
type CreateOrderItemRequest struct {
	ProductID  uuid.UUID  `json:"product_id" validate:"required"`
	VariantID  *uuid.UUID `json:"variant_id"`
	Quantity   int        `json:"quantity" validate:"required,gt=0"`
	UnitPrice  string     `json:"unit_price" validate:"required"`
	TotalPrice string     `json:"total_price"`
}

// CreateOrderRequest is the untrusted storefront submission. Every numeric
// field is re-derived server-side; none is persisted as-is.
type CreateOrderRequest struct {
	CartCorrelationKey   *string                  `json:"cart_correlation_key"`
	CustomerID           *uuid.UUID               `json:"customer_id"`
	Currency             string                   `json:"currency" validate:"required"`
	ShippingMethodID     uuid.UUID                `json:"shipping_method_id" validate:"required"`
	Items                []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	DiscountTotal        string                   `json:"discount_total"`
	ShippingTotal        string                   `json:"shipping_total"`
	TaxTotal             string                   `json:"tax_total"`
	AppliedDiscountCodes []string                 `json:"applied_discount_codes"`
}

// OrderItemResponse is the priced snapshot returned to the storefront.
type OrderItemResponse struct {
	ID        uuid.UUID  `json:"id"`
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	SKU       string     `json:"sku"`
	Title     string     `json:"title"`
	UnitPrice string     `json:"unit_price"`
	Quantity  int        `json:"quantity"`
	Total     string     `json:"total"`
}

// OrderResponse carries only server-computed totals.
type OrderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	Number             string              `json:"number"`
	Status             enums.OrderStatus   `json:"status"`
	CustomerID         *uuid.UUID          `json:"customer_id,omitempty"`
	CartCorrelationKey *string             `json:"cart_correlation_key,omitempty"`
	Currency           enums.Currency      `json:"currency"`
	ShippingMethodID   *uuid.UUID          `json:"shipping_method_id,omitempty"`
	Subtotal           string              `json:"subtotal"`
	DiscountTotal      string              `json:"discount_total"`
	ShippingTotal      string              `json:"shipping_total"`
	TaxTotal           string              `json:"tax_total"`
	Total              string              `json:"total"`
	AppliedDiscountIDs []uuid.UUID         `json:"applied_discount_ids,omitempty"`
	Items              []OrderItemResponse `json:"items,omitempty"`
	PlacedAt           *time.Time          `json:"placed_at,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// OrderListResponse wraps a page of orders plus the next cursor.
type OrderListResponse struct {
	Orders     []OrderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// ListFilters describe the inputs supported by the admin order list.
type ListFilters struct {
	Status     *enums.OrderStatus
	CustomerID *uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time
}

// ToOrderResponse maps the persisted order onto the API shape.
func ToOrderResponse(order *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:                 order.ID,
		Number:             order.Number,
		Status:             order.Status,
		CustomerID:         order.CustomerID,
		CartCorrelationKey: order.CartCorrelationKey,
		Currency:           order.Currency,
		ShippingMethodID:   order.ShippingMethodID,
		Subtotal:           money.FormatCents(order.SubtotalCents),
		DiscountTotal:      money.FormatCents(order.DiscountCents),
		ShippingTotal:      money.FormatCents(order.ShippingCents),
		TaxTotal:           money.FormatCents(order.TaxCents),
		Total:              money.FormatCents(order.TotalCents),
		AppliedDiscountIDs: order.AppliedDiscountIDs,
		PlacedAt:           order.PlacedAt,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			SKU:       item.SKU,
			Title:     item.Title,
			UnitPrice: money.FormatCents(item.UnitPriceCents),
			Quantity:  item.Qty,
			Total:     money.FormatCents(item.TotalCents),
		})
	}
	return resp
}
