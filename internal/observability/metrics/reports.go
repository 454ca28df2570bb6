package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReportMetrics exposes counters/histograms for report builds and digests.
type ReportMetrics struct {
	buildsTotal   *prometheus.CounterVec
	buildLatency  *prometheus.HistogramVec
	insightsTotal *prometheus.CounterVec
	cacheTotal    *prometheus.CounterVec
	digestsTotal  *prometheus.CounterVec
}

// NewReportMetrics registers the report collectors on reg, or the default registerer when reg is nil.
func NewReportMetrics(reg prometheus.Registerer) *ReportMetrics {
	m := &ReportMetrics{
		buildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groomer",
			Subsystem: "reports",
			Name:      "builds_total",
			Help:      "Total report builds by preset and outcome",
		}, []string{"preset", "status"}),
		buildLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "groomer",
			Subsystem: "reports",
			Name:      "build_latency_seconds",
			Help:      "Latency of loading a snapshot and computing a report",
			Buckets:   prometheus.DefBuckets,
		}, []string{"preset"}),
		insightsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groomer",
			Subsystem: "reports",
			Name:      "insights_total",
			Help:      "Insights emitted by type and rule",
		}, []string{"type", "rule"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groomer",
			Subsystem: "reports",
			Name:      "cache_total",
			Help:      "Report cache lookups by result",
		}, []string{"result"}),
		digestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groomer",
			Subsystem: "digest",
			Name:      "sent_total",
			Help:      "Insight digests by outcome",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.buildsTotal, m.buildLatency, m.insightsTotal, m.cacheTotal, m.digestsTotal)
	return m
}

// ObserveBuild counts a report build and records its latency.
func (m *ReportMetrics) ObserveBuild(preset, status string, seconds float64) {
	if m == nil {
		return
	}
	m.buildsTotal.WithLabelValues(preset, status).Inc()
	m.buildLatency.WithLabelValues(preset).Observe(seconds)
}

// ObserveInsight counts one emitted insight.
func (m *ReportMetrics) ObserveInsight(insightType, rule string) {
	if m == nil {
		return
	}
	m.insightsTotal.WithLabelValues(insightType, rule).Inc()
}

// ObserveCache records a cache lookup; result is hit, miss or error.
func (m *ReportMetrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}

// ObserveDigest counts a digest outcome: sent, error, disabled, duplicate or empty.
func (m *ReportMetrics) ObserveDigest(status string) {
	if m == nil {
		return
	}
	m.digestsTotal.WithLabelValues(status).Inc()
}
