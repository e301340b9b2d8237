package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config sets the constant labels of every series.
type Config struct {
	ServiceName string
	Environment string
}

// Metrics exposes the posting pipeline counters. A nil *Metrics records nothing.
type Metrics struct {
	invoicesPosted    *prometheus.CounterVec
	postFailures      *prometheus.CounterVec
	postDuration      *prometheus.HistogramVec
	angloSaxonEntries *prometheus.CounterVec
	ledgerMoves       prometheus.Counter
	warnings          *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
}

func New(cfg Config, registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "stockledger"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	invoicesPosted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "stockledger_invoices_posted_total",
		Help:        "Invoices posted into the ledger by invoice type.",
		ConstLabels: constLabels,
	}, []string{"invoice_type"})
	postFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "stockledger_invoice_post_failures_total",
		Help:        "Invoice posting failures by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})
	postDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "stockledger_invoice_post_duration_seconds",
		Help:        "Latency of invoice posting and preview.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		ConstLabels: constLabels,
	}, []string{"operation"})
	angloSaxonEntries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "stockledger_anglo_saxon_entries_total",
		Help:        "COGS line pairs generated by direction tag.",
		ConstLabels: constLabels,
	}, []string{"move_type"})
	ledgerMoves := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "stockledger_ledger_moves_total",
		Help:        "Ledger moves persisted.",
		ConstLabels: constLabels,
	})
	warnings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "stockledger_user_warnings_total",
		Help:        "User warnings surfaced by name.",
		ConstLabels: constLabels,
	}, []string{"name"})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "stockledger_http_requests_total",
		Help:        "HTTP requests by route and status class.",
		ConstLabels: constLabels,
	}, []string{"method", "route", "status"})

	registerer.MustRegister(
		invoicesPosted,
		postFailures,
		postDuration,
		angloSaxonEntries,
		ledgerMoves,
		warnings,
		httpRequests,
	)

	return &Metrics{
		invoicesPosted:    invoicesPosted,
		postFailures:      postFailures,
		postDuration:      postDuration,
		angloSaxonEntries: angloSaxonEntries,
		ledgerMoves:       ledgerMoves,
		warnings:          warnings,
		httpRequests:      httpRequests,
	}
}

func (m *Metrics) IncInvoicePosted(invoiceType string) {
	if m == nil {
		return
	}
	m.invoicesPosted.WithLabelValues(normalizeLabel(invoiceType)).Inc()
}

// IncPostFailure classifies err into a reason label.
func (m *Metrics) IncPostFailure(err error) {
	if m == nil || err == nil {
		return
	}
	m.postFailures.WithLabelValues(ClassifyReason(err)).Inc()
}

func (m *Metrics) ObservePostDuration(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.postDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func (m *Metrics) IncAngloSaxonEntry(moveType string) {
	if m == nil {
		return
	}
	m.angloSaxonEntries.WithLabelValues(normalizeLabel(moveType)).Inc()
}

func (m *Metrics) IncLedgerMove() {
	if m == nil {
		return
	}
	m.ledgerMoves.Inc()
}

func (m *Metrics) IncWarning(name string) {
	if m == nil {
		return
	}
	m.warnings.WithLabelValues(normalizeLabel(name)).Inc()
}

func (m *Metrics) IncHTTPRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(strings.ToUpper(method), normalizeLabel(route), statusClass(status)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
