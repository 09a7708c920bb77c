package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/internal/orders"
	"github.com/harborline/storefront-backend/internal/shipping"
	"github.com/harborline/storefront-backend/pkg/config"
	"github.com/harborline/storefront-backend/pkg/db/models"
	"github.com/harborline/storefront-backend/pkg/enums"
	"github.com/harborline/storefront-backend/pkg/logger"
	"github.com/harborline/storefront-backend/pkg/pagination"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubOrderService struct {
	created   int
	confirmed int
	lastReq   orders.CreateOrderRequest
	lastID    uuid.UUID
	resp      orders.OrderResponse
}

func (s *stubOrderService) CreateOrUpdateDraft(_ context.Context, req orders.CreateOrderRequest) (*orders.OrderResponse, error) {
	s.created++
	s.lastReq = req
	resp := s.resp
	return &resp, nil
}

func (s *stubOrderService) Confirm(_ context.Context, orderID uuid.UUID) (*orders.OrderResponse, error) {
	s.confirmed++
	s.lastID = orderID
	resp := s.resp
	resp.Status = enums.OrderStatusConfirmed
	return &resp, nil
}

func (s *stubOrderService) GetByID(_ context.Context, orderID uuid.UUID) (*orders.OrderResponse, error) {
	s.lastID = orderID
	resp := s.resp
	return &resp, nil
}

func (s *stubOrderService) List(context.Context, orders.ListFilters, pagination.Params) (*orders.OrderListResponse, error) {
	return &orders.OrderListResponse{}, nil
}

type stubShippingRepo struct {
	methods []models.ShippingMethod
}

func (s *stubShippingRepo) WithTx(*gorm.DB) shipping.Repository { return s }

func (s *stubShippingRepo) FindActiveByID(context.Context, uuid.UUID) (*models.ShippingMethod, error) {
	return nil, errors.New("not used")
}

func (s *stubShippingRepo) ListActive(context.Context) ([]models.ShippingMethod, error) {
	return s.methods, nil
}

func newTestRouter(svc orders.Service, dbErr error) http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	return NewRouter(RouterParams{
		Config:   cfg,
		Logger:   logger.New(logger.Options{ServiceName: "router-test"}),
		DBPinger: stubPinger{err: dbErr},
		Orders:   svc,
		Shipping: &stubShippingRepo{methods: []models.ShippingMethod{{ID: uuid.New(), Code: "standard", Name: "Standard", RateCents: 599}}},
	})
}

func TestRouterHealthLive(t *testing.T) {
	router := newTestRouter(&stubOrderService{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("X-Harborline-Env") != "test" {
		t.Fatalf("expected env header, got %q", rec.Header().Get("X-Harborline-Env"))
	}
}

func TestRouterHealthReadyReportsDependencyFailure(t *testing.T) {
	router := newTestRouter(&stubOrderService{}, errors.New("connection refused"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}

func TestRouterCreateOrder(t *testing.T) {
	svc := &stubOrderService{resp: orders.OrderResponse{ID: uuid.New(), Number: "ORD-00000001", Status: enums.OrderStatusDraft}}
	router := newTestRouter(svc, nil)

	body := fmt.Sprintf(`{
		"currency": "USD",
		"shipping_method_id": %q,
		"items": [{"product_id": %q, "quantity": 2, "unit_price": "25.00"}]
	}`, uuid.New(), uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.created != 1 {
		t.Fatalf("expected service called once, got %d", svc.created)
	}

	var payload struct {
		Data orders.OrderResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.Number != "ORD-00000001" {
		t.Fatalf("unexpected number %q", payload.Data.Number)
	}
}

func TestRouterCreateOrderRejectsMalformedBody(t *testing.T) {
	svc := &stubOrderService{}
	router := newTestRouter(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"currency":"USD"`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.created != 0 {
		t.Fatalf("service should not run on malformed input")
	}
}

func TestRouterConfirmOrder(t *testing.T) {
	svc := &stubOrderService{resp: orders.OrderResponse{ID: uuid.New(), Number: "ORD-00000002"}}
	router := newTestRouter(svc, nil)

	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/confirm", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.confirmed != 1 {
		t.Fatalf("expected confirm called once, got %d", svc.confirmed)
	}
	if svc.lastID != orderID {
		t.Fatalf("expected order id %s, got %s", orderID, svc.lastID)
	}
}

func TestRouterConfirmRejectsBadOrderID(t *testing.T) {
	router := newTestRouter(&stubOrderService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/not-a-uuid/confirm", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestRouterListShippingMethods(t *testing.T) {
	router := newTestRouter(&stubOrderService{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/shipping-methods", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var payload struct {
		Data struct {
			ShippingMethods []struct {
				Code string `json:"code"`
				Rate string `json:"rate"`
			} `json:"shipping_methods"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Data.ShippingMethods) != 1 {
		t.Fatalf("expected one method, got %d", len(payload.Data.ShippingMethods))
	}
	if payload.Data.ShippingMethods[0].Rate != "5.99" {
		t.Fatalf("unexpected rate %q", payload.Data.ShippingMethods[0].Rate)
	}
}

func TestRouterAdminListValidatesFilters(t *testing.T) {
	router := newTestRouter(&stubOrderService{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?status=bogus", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(&stubOrderService{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
