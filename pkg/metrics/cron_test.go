package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	job := "stale_cart_cleanup"

	m.ObserveRun(job, 250*time.Millisecond, nil)
	m.ObserveRun(job, time.Second, errors.New("db down"))
	m.ObserveRun("", time.Millisecond, nil)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	runs := findMetricFamily(mfs, "storefront_cron_job_runs_total")
	require.NotNil(t, runs)
	require.Equal(t, 1.0, counterWith(runs, map[string]string{"job": job, "result": CronSuccess}))
	require.Equal(t, 1.0, counterWith(runs, map[string]string{"job": job, "result": CronFailure}))
	require.Equal(t, 1.0, counterWith(runs, map[string]string{"job": "unknown", "result": CronSuccess}))

	duration := findMetricFamily(mfs, "storefront_cron_job_duration_seconds")
	require.NotNil(t, duration)
	require.InDelta(t, 1.25, histogramSum(duration, "job", job), 1e-9)

	last := findMetricFamily(mfs, "storefront_cron_job_last_success_timestamp_seconds")
	require.NotNil(t, last)
	require.Greater(t, last.GetMetric()[0].GetGauge().GetValue(), 0.0)
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveRun("job", time.Second, nil)
	require.Nil(t, NewCronJobMetrics(nil))
}

func counterWith(mf *dto.MetricFamily, labels map[string]string) float64 {
	for _, metric := range mf.GetMetric() {
		matched := true
		for name, value := range labels {
			if !matchesLabel(metric.GetLabel(), name, value) {
				matched = false
				break
			}
		}
		if matched {
			return metric.GetCounter().GetValue()
		}
	}
	return -1
}

func histogramSum(mf *dto.MetricFamily, label, value string) float64 {
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum()
		}
	}
	return -1
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
