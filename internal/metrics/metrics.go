package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dchrnv/neurograph-core/internal/arbiter"
)

// #region exporter
// Exporter exposes arbiter statistics as Prometheus metrics. It reads a
// stats snapshot on every scrape, so the hot counters stay plain atomics.
type Exporter struct {
	stats *arbiter.Stats

	decisions          *prometheus.Desc
	rejections         *prometheus.Desc
	lowConfFallbacks   *prometheus.Desc
	policyTimeouts     *prometheus.Desc
	shadowEvaluations  *prometheus.Desc
	shadowDisagrees    *prometheus.Desc
	avgConfidence      *prometheus.Desc
	avgDecisionSeconds *prometheus.Desc
	reflexUsage        *prometheus.Desc
	speedupFactor      *prometheus.Desc
}

// NewExporter creates an exporter over the arbiter's stats.
func NewExporter(stats *arbiter.Stats) *Exporter {
	return &Exporter{
		stats: stats,
		decisions: prometheus.NewDesc(
			"neurograph_arbiter_decisions_total",
			"Decisions taken, by path.",
			[]string{"path"}, nil,
		),
		rejections: prometheus.NewDesc(
			"neurograph_arbiter_reflex_rejections_total",
			"Reflex candidates rejected by the validator gate.",
			nil, nil,
		),
		lowConfFallbacks: prometheus.NewDesc(
			"neurograph_arbiter_low_confidence_fallbacks_total",
			"Reflex candidates below the confidence threshold.",
			nil, nil,
		),
		policyTimeouts: prometheus.NewDesc(
			"neurograph_arbiter_policy_timeouts_total",
			"Policy provider calls that hit the timeout.",
			nil, nil,
		),
		shadowEvaluations: prometheus.NewDesc(
			"neurograph_arbiter_shadow_evaluations_total",
			"Shadow-mode slow path evaluations.",
			nil, nil,
		),
		shadowDisagrees: prometheus.NewDesc(
			"neurograph_arbiter_shadow_disagreements_total",
			"Shadow-mode evaluations whose action diverged past the threshold.",
			nil, nil,
		),
		avgConfidence: prometheus.NewDesc(
			"neurograph_arbiter_avg_confidence",
			"Running average decision confidence, by path.",
			[]string{"path"}, nil,
		),
		avgDecisionSeconds: prometheus.NewDesc(
			"neurograph_arbiter_avg_decision_seconds",
			"Running average decision latency in seconds, by path.",
			[]string{"path"}, nil,
		),
		reflexUsage: prometheus.NewDesc(
			"neurograph_arbiter_reflex_usage_percent",
			"Share of decisions answered on the fast path.",
			nil, nil,
		),
		speedupFactor: prometheus.NewDesc(
			"neurograph_arbiter_speedup_factor",
			"Average reasoning latency over average reflex latency.",
			nil, nil,
		),
	}
}

// #endregion exporter

// #region collect
// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.decisions
	ch <- e.rejections
	ch <- e.lowConfFallbacks
	ch <- e.policyTimeouts
	ch <- e.shadowEvaluations
	ch <- e.shadowDisagrees
	ch <- e.avgConfidence
	ch <- e.avgDecisionSeconds
	ch <- e.reflexUsage
	ch <- e.speedupFactor
}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	s := e.stats.Snapshot()

	ch <- prometheus.MustNewConstMetric(e.decisions, prometheus.CounterValue, float64(s.ReflexCount), "reflex")
	ch <- prometheus.MustNewConstMetric(e.decisions, prometheus.CounterValue, float64(s.ReasoningCount), "reasoning")
	ch <- prometheus.MustNewConstMetric(e.decisions, prometheus.CounterValue, float64(s.FailsafeCount), "failsafe")

	ch <- prometheus.MustNewConstMetric(e.rejections, prometheus.CounterValue, float64(s.ReflexRejections))
	ch <- prometheus.MustNewConstMetric(e.lowConfFallbacks, prometheus.CounterValue, float64(s.LowConfidenceFallbacks))
	ch <- prometheus.MustNewConstMetric(e.policyTimeouts, prometheus.CounterValue, float64(s.PolicyTimeouts))
	ch <- prometheus.MustNewConstMetric(e.shadowEvaluations, prometheus.CounterValue, float64(s.ShadowEvaluations))
	ch <- prometheus.MustNewConstMetric(e.shadowDisagrees, prometheus.CounterValue, float64(s.ShadowDisagreements))

	ch <- prometheus.MustNewConstMetric(e.avgConfidence, prometheus.GaugeValue, s.AvgReflexConfidence, "reflex")
	ch <- prometheus.MustNewConstMetric(e.avgConfidence, prometheus.GaugeValue, s.AvgReasoningConfidence, "reasoning")
	ch <- prometheus.MustNewConstMetric(e.avgDecisionSeconds, prometheus.GaugeValue, s.AvgReflexTime.Seconds(), "reflex")
	ch <- prometheus.MustNewConstMetric(e.avgDecisionSeconds, prometheus.GaugeValue, s.AvgReasoningTime.Seconds(), "reasoning")

	ch <- prometheus.MustNewConstMetric(e.reflexUsage, prometheus.GaugeValue, s.ReflexUsagePercent)
	ch <- prometheus.MustNewConstMetric(e.speedupFactor, prometheus.GaugeValue, s.SpeedupFactor)
}

// #endregion collect

// #region handler
// Handler returns an HTTP handler serving the exporter on its own registry.
func Handler(stats *arbiter.Stats) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewExporter(stats))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// #endregion handler
