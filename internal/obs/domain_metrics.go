package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics groups business-level counters for the POS domain.
type DomainMetrics struct {
	BillsCreated  *prometheus.CounterVec
	BulkPreviews  prometheus.Counter
	BulkCommits   *prometheus.CounterVec
	StockMoves    *prometheus.CounterVec
	PurchaseBills prometheus.Counter
}

var domainMetrics *DomainMetrics

// MustRegisterDomainMetrics registers domain counters once at startup.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &DomainMetrics{
		BillsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_created_total",
			Help:      "Number of bills created, labelled by classification.",
		}, []string{"kind"}),
		BulkPreviews: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_previews_total",
			Help:      "Number of bulk price-update previews computed.",
		}),
		BulkCommits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_commits_total",
			Help:      "Number of bulk price-update commits, labelled by mode.",
		}, []string{"mode"}),
		StockMoves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movements_total",
			Help:      "Stock adjustments, labelled by direction.",
		}, []string{"direction"}),
		PurchaseBills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchase_bills_total",
			Help:      "Supplier purchase bills ingested.",
		}),
	}
	for _, c := range []prometheus.Collector{m.BillsCreated, m.BulkPreviews, m.BulkCommits, m.StockMoves, m.PurchaseBills} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
	domainMetrics = m
}

// Domain returns the registered domain metrics, or nil when metrics are disabled.
func Domain() *DomainMetrics {
	return domainMetrics
}

// CountBill increments the bill counter when metrics are enabled.
func CountBill(kind string) {
	if domainMetrics != nil {
		domainMetrics.BillsCreated.WithLabelValues(kind).Inc()
	}
}

// CountBulkPreview increments the preview counter when metrics are enabled.
func CountBulkPreview() {
	if domainMetrics != nil {
		domainMetrics.BulkPreviews.Inc()
	}
}

// CountBulkCommit increments the commit counter when metrics are enabled.
func CountBulkCommit(mode string) {
	if domainMetrics != nil {
		domainMetrics.BulkCommits.WithLabelValues(mode).Inc()
	}
}

// CountStockMove increments the stock movement counter when metrics are enabled.
func CountStockMove(direction string) {
	if domainMetrics != nil {
		domainMetrics.StockMoves.WithLabelValues(direction).Inc()
	}
}

// CountPurchaseBill increments the purchase counter when metrics are enabled.
func CountPurchaseBill() {
	if domainMetrics != nil {
		domainMetrics.PurchaseBills.Inc()
	}
}
