package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records counters for the order creation pipeline.
type OrderMetrics struct {
	created          *prometheus.CounterVec
	rejected         *prometheus.CounterVec
	confirmed        prometheus.Counter
	allocatorRetries prometheus.Counter
	validateDuration *prometheus.HistogramVec
}

// NewOrderMetrics registers the order pipeline metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created or updated, labeled by outcome (new/updated).",
	}, []string{"outcome"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Order submissions rejected, labeled by error code.",
	}, []string{"code"})
	confirmed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_confirmed_total",
		Help: "Orders confirmed.",
	})
	allocatorRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_number_allocator_retries_total",
		Help: "Order number allocation attempts beyond the first.",
	})
	validateDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_validation_duration_seconds",
		Help:    "Duration of price and discount validation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	reg.MustRegister(created, rejected, confirmed, allocatorRetries, validateDuration)
	return &OrderMetrics{
		created:          created,
		rejected:         rejected,
		confirmed:        confirmed,
		allocatorRetries: allocatorRetries,
		validateDuration: validateDuration,
	}
}

// IncCreated increments the creation counter for the given outcome.
func (o *OrderMetrics) IncCreated(outcome string) {
	if o == nil || o.created == nil {
		return
	}
	o.created.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncRejected increments the rejection counter for the given error code.
func (o *OrderMetrics) IncRejected(code string) {
	if o == nil || o.rejected == nil {
		return
	}
	o.rejected.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncConfirmed increments the confirmation counter.
func (o *OrderMetrics) IncConfirmed() {
	if o == nil || o.confirmed == nil {
		return
	}
	o.confirmed.Inc()
}

// IncAllocatorRetry increments the allocator retry counter.
func (o *OrderMetrics) IncAllocatorRetry() {
	if o == nil || o.allocatorRetries == nil {
		return
	}
	o.allocatorRetries.Inc()
}

// ObserveValidation records the duration for a validation stage.
func (o *OrderMetrics) ObserveValidation(stage string, duration time.Duration) {
	if o == nil || o.validateDuration == nil {
		return
	}
	o.validateDuration.WithLabelValues(normalizeLabel(stage)).Observe(duration.Seconds())
}
