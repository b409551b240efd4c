package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.Observe("POST", "/api/v1/carts/{cartID}/items", 201, 20*time.Millisecond)
	m.Observe("POST", "/api/v1/carts/{cartID}/items", 201, 10*time.Millisecond)
	m.Observe("GET", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	mf := findMetricFamily(mfs, "storefront_http_requests_total")
	require.NotNil(t, mf)
	var created, unknown float64
	for _, metric := range mf.GetMetric() {
		switch {
		case matchesLabel(metric.GetLabel(), "status", "201"):
			created = metric.GetCounter().GetValue()
		case matchesLabel(metric.GetLabel(), "route", "unknown"):
			unknown = metric.GetCounter().GetValue()
		}
	}
	require.Equal(t, float64(2), created)
	require.Equal(t, float64(1), unknown)

	hist := findMetricFamily(mfs, "storefront_http_request_duration_seconds")
	require.NotNil(t, hist)
	require.InDelta(t, 0.03, histogramSum(hist, "route", "/api/v1/carts/{cartID}/items"), 0.0001)
}

func TestHTTPMetricsNilSafe(t *testing.T) {
	var m *HTTPMetrics
	m.Observe("GET", "/", 200, time.Millisecond)
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Millisecond)
}
