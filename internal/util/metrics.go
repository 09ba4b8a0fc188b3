package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed successfully",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order placements",
	}, []string{"reason"})

	OrderPlacementLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_placement_latency_seconds",
		Help:    "End-to-end latency of order placement",
		Buckets: prometheus.DefBuckets,
	})

	BookLockWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "book_lock_wait_seconds",
		Help:    "Time spent waiting for book row locks",
		Buckets: prometheus.DefBuckets,
	})

	OrderEventsAuditedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_events_audited_total",
		Help: "Total number of order events recorded by the audit worker",
	})

	OrderEventsDuplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_events_duplicate_total",
		Help: "Total number of order events skipped as already processed",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
