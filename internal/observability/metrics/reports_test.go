package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestReportMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReportMetrics(reg)

	m.ObserveBuild("last30", "ok", 0.25)
	m.ObserveBuild("last30", "ok", 0.5)
	m.ObserveInsight("warning", "high_no_shows")
	m.ObserveCache("hit")
	m.ObserveCache("miss")
	m.ObserveCache("miss")
	m.ObserveDigest("sent")

	families := gather(t, reg)

	builds := families["groomer_reports_builds_total"]
	require.NotNil(t, builds)
	assert.Equal(t, 2.0, builds.GetMetric()[0].GetCounter().GetValue())

	latency := families["groomer_reports_build_latency_seconds"]
	require.NotNil(t, latency)
	assert.Equal(t, uint64(2), latency.GetMetric()[0].GetHistogram().GetSampleCount())

	cache := families["groomer_reports_cache_total"]
	require.NotNil(t, cache)
	counts := map[string]float64{}
	for _, metric := range cache.GetMetric() {
		counts[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"hit": 1, "miss": 2}, counts)

	assert.NotNil(t, families["groomer_reports_insights_total"])
	assert.NotNil(t, families["groomer_digest_sent_total"])
}

func TestReportMetricsNilSafe(t *testing.T) {
	var m *ReportMetrics
	m.ObserveBuild("today", "error", 0.1)
	m.ObserveInsight("info", "lapsed_customers")
	m.ObserveCache("hit")
	m.ObserveDigest("failed")
}
