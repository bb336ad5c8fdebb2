package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CatalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_catalog_requests_total",
		Help: "Catalog requests by result (provider, cache, error)",
	}, []string{"result"})

	CatalogProductsServed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_catalog_available_products",
		Help: "Number of available products in the last normalized catalog",
	})

	CheckoutsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkouts_created_total",
		Help: "Checkout links created, by mode (order, quick_pay)",
	}, []string{"mode"})

	CheckoutsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkouts_failed_total",
		Help: "Failed checkout attempts by reason",
	}, []string{"reason"})

	PaymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_payments_total",
		Help: "Direct payments by result",
	}, []string{"result"})

	ProviderRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_provider_request_duration_seconds",
		Help:    "Latency of commerce provider API calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

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
