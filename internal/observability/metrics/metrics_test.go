package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClassifyReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: ReasonDeadlineExceeded},
		{name: "canceled", err: fmt.Errorf("post: %w", context.Canceled), want: ReasonDeadlineExceeded},
		{name: "db_lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: ReasonDBLockTimeout},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, want: ReasonSerializationFailure},
		{name: "unique_violation", err: gorm.ErrDuplicatedKey, want: ReasonUniqueViolation},
		{name: "not_found", err: gorm.ErrRecordNotFound, want: ReasonNotFound},
		{name: "unknown", err: errors.New("boom"), want: ReasonUnknown},
		{name: "nil", err: nil, want: ReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyReason(tc.err))
		})
	}
}

func TestMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(Config{ServiceName: "stockledger", Environment: "test"}, reg)

	m.IncInvoicePosted("in_invoice")
	m.IncInvoicePosted("in_invoice")
	m.IncAngloSaxonEntry("in_supplier")
	m.IncWarning("stock_move_different_product")
	m.IncLedgerMove()
	m.IncPostFailure(gorm.ErrDuplicatedKey)
	m.IncPostFailure(nil)
	m.IncHTTPRequest("post", "/v1/invoices/:id/post", 201)
	m.ObservePostDuration("post", 20*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.invoicesPosted.WithLabelValues("in_invoice")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.angloSaxonEntries.WithLabelValues("in_supplier")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.warnings.WithLabelValues("stock_move_different_product")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ledgerMoves))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.postFailures.WithLabelValues(ReasonUniqueViolation)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/v1/invoices/:id/post", "2xx")))

	var metric dto.Metric
	require.NoError(t, m.ledgerMoves.Write(&metric))
	labels := map[string]string{}
	for _, pair := range metric.GetLabel() {
		labels[pair.GetName()] = pair.GetValue()
	}
	assert.Equal(t, "test", labels["env"])
	assert.Equal(t, "stockledger", labels["service"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncInvoicePosted("out_invoice")
		m.IncPostFailure(errors.New("boom"))
		m.ObservePostDuration("post", time.Second)
		m.IncAngloSaxonEntry("out_customer")
		m.IncLedgerMove()
		m.IncWarning("w")
		m.IncHTTPRequest("GET", "/health", 200)
	})
}

func TestEmptyLabelsNormalize(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(Config{}, reg)

	m.IncWarning("  ")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.warnings.WithLabelValues("unknown")))
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "5xx", statusClass(503))
}
