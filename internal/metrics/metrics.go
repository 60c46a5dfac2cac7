// Package metrics exposes Prometheus instruments for the inventory service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded for ledger transactions and stock adjustments.
const (
	OutcomeCommitted         = "committed"
	OutcomeInvalid           = "invalid"
	OutcomeNotFound          = "not_found"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeError             = "error"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	ledgerTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_ledger_transactions_total",
			Help: "Ledger transactions by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	stockAdjustmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_stock_adjustments_total",
			Help: "Direct stock adjustments by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	stockUnitsMovedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_stock_units_moved_total",
			Help: "Units of stock moved by committed ledger transactions",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(ledgerTransactionsTotal)
	prometheus.MustRegister(stockAdjustmentsTotal)
	prometheus.MustRegister(stockUnitsMovedTotal)
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTransaction counts a ledger attempt. Units are only added for
// committed transactions.
func RecordTransaction(txnType, outcome string, quantity int) {
	ledgerTransactionsTotal.WithLabelValues(txnType, outcome).Inc()
	if outcome == OutcomeCommitted && quantity > 0 {
		stockUnitsMovedTotal.WithLabelValues(txnType).Add(float64(quantity))
	}
}

// RecordStockAdjustment counts a direct stock adjustment attempt.
func RecordStockAdjustment(txnType, outcome string) {
	stockAdjustmentsTotal.WithLabelValues(txnType, outcome).Inc()
}
