package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SalesRecordedTotal counts sale recording attempts by outcome.
	SalesRecordedTotal *prometheus.CounterVec
	// SaleAmountTotal accumulates the payable amount of recorded sales.
	SaleAmountTotal prometheus.Counter
	// StockLevel tracks the current can count per product.
	StockLevel *prometheus.GaugeVec
	// LowStockProducts tracks how many products sit under the low-stock threshold.
	LowStockProducts prometheus.Gauge
	// LedgerExportsTotal counts sales-history CSV exports by trigger.
	LedgerExportsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers the shop's domain
// collectors. Safe to call from both the API and the worker entrypoint;
// only the first call in a process takes effect.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SalesRecordedTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_recorded_total",
			Help:      "Count of sale recording outcomes.",
		}, []string{"result"}))
		SaleAmountTotal = registerOrReuse(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sale_amount_total",
			Help:      "Sum of totalAmount across successfully recorded sales.",
		}))
		StockLevel = registerOrReuse(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stock_cans",
			Help:      "Cans currently in stock per product.",
		}, []string{"product"}))
		LowStockProducts = registerOrReuse(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "low_stock_products",
			Help:      "Number of products below the low-stock threshold.",
		}))
		LedgerExportsTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_exports_total",
			Help:      "Count of sales-history CSV exports.",
		}, []string{"trigger"}))
	})
}
