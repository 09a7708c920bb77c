package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborline/storefront-backend/api/controllers"
	"github.com/harborline/storefront-backend/api/middleware"
	"github.com/harborline/storefront-backend/internal/orders"
	"github.com/harborline/storefront-backend/internal/shipping"
	"github.com/harborline/storefront-backend/pkg/config"
	"github.com/harborline/storefront-backend/pkg/logger"
	"github.com/harborline/storefront-backend/pkg/redis"
)

// RouterParams carries the wired collaborators for the HTTP surface.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DBPinger controllers.Pinger
	Redis    *redis.Client
	Orders   orders.Service
	Shipping shipping.Repository
	Metrics  prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(params.Logger),
		middleware.RequestID(params.Logger),
		middleware.Logging(params.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(params.Config))
		r.Get("/ready", controllers.HealthReady(params.Config, params.Logger, params.DBPinger, redisPinger(params.Redis)))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore(params.Redis), params.Logger))

		r.Get("/shipping-methods", controllers.ListShippingMethods(params.Shipping, params.Logger))

		r.Post("/orders", controllers.CreateOrder(params.Orders, params.Logger))
		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Get("/", controllers.GetOrder(params.Orders, params.Logger))
			r.Post("/confirm", controllers.ConfirmOrder(params.Orders, params.Logger))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/orders", controllers.AdminListOrders(params.Orders, params.Logger))
		})
	})

	return r
}

// Typed-nil guards: a nil *redis.Client stored in an interface is non-nil,
// which would make health checks and the idempotency gate dereference it.
func redisPinger(client *redis.Client) controllers.Pinger {
	if client == nil {
		return nil
	}
	return client
}

func idempotencyStore(client *redis.Client) redis.IdempotencyStore {
	if client == nil {
		return nil
	}
	return client
}
