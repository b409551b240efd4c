package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outbox delivery outcomes.
const (
	OutboxPublished = "published"
	OutboxFailed    = "failed"
	OutboxTerminal  = "terminal"
	OutboxDuplicate = "duplicate"
)

// OutboxMetrics counts publisher outcomes per event type and tracks the size
// of the last fetched batch.
type OutboxMetrics struct {
	events *prometheus.CounterVec
	batch  prometheus.Gauge
}

// NewOutboxMetrics registers the outbox publisher metrics on reg.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "events_total",
		Help:      "Outbox events handled by the publisher, by outcome.",
	}, []string{"event_type", "outcome"})
	batch := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "last_batch_size",
		Help:      "Rows fetched by the most recent publish batch.",
	})
	reg.MustRegister(events, batch)
	return &OutboxMetrics{events: events, batch: batch}
}

// Record counts one event outcome.
func (o *OutboxMetrics) Record(eventType, outcome string) {
	if o == nil || o.events == nil {
		return
	}
	o.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// ObserveBatch stores the size of the batch just fetched.
func (o *OutboxMetrics) ObserveBatch(size int) {
	if o == nil || o.batch == nil {
		return
	}
	o.batch.Set(float64(size))
}
