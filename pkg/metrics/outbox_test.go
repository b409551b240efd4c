package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestOutboxMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)

	m.Record("order_created", OutboxPublished)
	m.Record("order_created", OutboxPublished)
	m.Record("cart_expired", OutboxTerminal)
	m.ObserveBatch(3)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	mf := findMetricFamily(mfs, "storefront_outbox_events_total")
	require.NotNil(t, mf)
	var published, terminal float64
	for _, metric := range mf.GetMetric() {
		switch {
		case matchesLabel(metric.GetLabel(), "outcome", OutboxPublished):
			published = metric.GetCounter().GetValue()
		case matchesLabel(metric.GetLabel(), "outcome", OutboxTerminal):
			terminal = metric.GetCounter().GetValue()
		}
	}
	require.Equal(t, float64(2), published)
	require.Equal(t, float64(1), terminal)

	gauge := findMetricFamily(mfs, "storefront_outbox_last_batch_size")
	require.NotNil(t, gauge)
	require.Equal(t, float64(3), gauge.GetMetric()[0].GetGauge().GetValue())
}

func TestOutboxMetricsNilSafe(t *testing.T) {
	var m *OutboxMetrics
	m.Record("order_created", OutboxFailed)
	m.ObserveBatch(1)
	NewOutboxMetrics(nil).Record("order_created", OutboxFailed)
}
