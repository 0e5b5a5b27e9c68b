package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BarcodeChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barcode_checks_total",
		Help: "Total number of barcode checks",
	}, []string{"result"})

	CatalogLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_lookups_total",
		Help: "Total number of remote catalog lookups by scan code",
	}, []string{"outcome"})

	PriceFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_fetches_total",
		Help: "Total number of authoritative price fetches",
	}, []string{"outcome"})

	PriceDriftTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "price_drift_total",
		Help: "Total number of reconciles that detected price drift",
	})

	ProductsAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_added_total",
		Help: "Total number of products registered",
	})

	ReportsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reports_generated_total",
		Help: "Total number of stocktake reports generated",
	})

	LedgerLinesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_lines_total",
		Help: "Total number of priced ledger lines emitted",
	})

	LedgerUnmatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_unmatched_total",
		Help: "Total number of counted items with no catalog match",
	})

	MatchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fuzzy_match_latency_seconds",
		Help:    "Latency of fuzzy catalog matching",
		Buckets: prometheus.DefBuckets,
	})

	ReconcileLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "price_reconcile_latency_seconds",
		Help:    "Latency of price reconciliation including the remote fetch",
		Buckets: prometheus.DefBuckets,
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
