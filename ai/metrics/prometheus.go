// Package metrics exports enrichment metrics in Prometheus format.
package metrics

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "ideanote"
	subsystem = "ai"
)

// PrometheusExporter exports AI metrics in Prometheus format.
// It satisfies the recorder interfaces of gateway, chain, tags and transcribe.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Provider call metrics
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec

	// Chain metrics
	chainRuns     *prometheus.CounterVec
	chainInsights *prometheus.HistogramVec
	chainFailures *prometheus.CounterVec
	chainLatency  *prometheus.HistogramVec

	// Tag suggestion metrics
	tagSuggestions *prometheus.CounterVec
	suggestedTags  *prometheus.CounterVec

	// Transcription metrics
	transcriptions     *prometheus.CounterVec
	transcriptionBytes prometheus.Histogram

	// Cache metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// HTTP metrics
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.providerCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "provider_calls_total",
			Help:      "Total number of provider calls by outcome",
		},
		[]string{"role", "model", "outcome"},
	)

	e.providerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "provider_latency_seconds",
			Help:      "Provider call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"role", "model"},
	)

	e.chainRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chain_runs_total",
			Help:      "Total number of insight chain runs",
		},
		[]string{"task", "status"},
	)

	e.chainInsights = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chain_insights",
			Help:      "Insights produced per chain run",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
		[]string{"task"},
	)

	e.chainFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chain_provider_failures_total",
			Help:      "Total number of providers that failed inside a chain",
		},
		[]string{"task"},
	)

	e.chainLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chain_latency_seconds",
			Help:      "Insight chain latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"task"},
	)

	e.tagSuggestions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tag_suggestions_total",
			Help:      "Total number of tag suggestion requests by outcome",
		},
		[]string{"outcome"},
	)

	e.suggestedTags = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "suggested_tags_total",
			Help:      "Total number of suggested tags by kind",
		},
		[]string{"kind"},
	)

	e.transcriptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transcriptions_total",
			Help:      "Total number of transcriptions by outcome",
		},
		[]string{"outcome"},
	)

	e.transcriptionBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transcription_input_bytes",
			Help:      "Size of audio submitted for transcription",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 7),
		},
	)

	e.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	e.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	e.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	e.httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_latency_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"method", "route"},
	)

	registry.MustRegister(
		e.providerCalls,
		e.providerLatency,
		e.chainRuns,
		e.chainInsights,
		e.chainFailures,
		e.chainLatency,
		e.tagSuggestions,
		e.suggestedTags,
		e.transcriptions,
		e.transcriptionBytes,
		e.cacheHits,
		e.cacheMisses,
		e.httpRequests,
		e.httpLatency,
	)

	return e
}

// RecordProviderCall records one gateway call.
func (e *PrometheusExporter) RecordProviderCall(role, model, outcome string, latency time.Duration) {
	e.providerCalls.WithLabelValues(role, model, outcome).Inc()
	if latency > 0 {
		e.providerLatency.WithLabelValues(role, model).Observe(latency.Seconds())
	}
}

// RecordChainRun records a finished chain. A run without insights counts as failed.
func (e *PrometheusExporter) RecordChainRun(task string, insights, failures int, duration time.Duration) {
	status := "success"
	if insights == 0 {
		status = "failed"
	}
	e.chainRuns.WithLabelValues(task, status).Inc()
	e.chainInsights.WithLabelValues(task).Observe(float64(insights))
	e.chainFailures.WithLabelValues(task).Add(float64(failures))
	e.chainLatency.WithLabelValues(task).Observe(duration.Seconds())
}

// RecordTagSuggestion records a tag suggestion request.
func (e *PrometheusExporter) RecordTagSuggestion(outcome string, total, newTags int) {
	e.tagSuggestions.WithLabelValues(outcome).Inc()
	if total > 0 {
		e.suggestedTags.WithLabelValues("new").Add(float64(newTags))
		e.suggestedTags.WithLabelValues("existing").Add(float64(total - newTags))
	}
}

// RecordTranscription records a transcription attempt.
func (e *PrometheusExporter) RecordTranscription(outcome string, bytes int) {
	e.transcriptions.WithLabelValues(outcome).Inc()
	if bytes > 0 {
		e.transcriptionBytes.Observe(float64(bytes))
	}
}

// RecordCacheHit records a cache hit.
func (e *PrometheusExporter) RecordCacheHit(cacheType string) {
	e.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (e *PrometheusExporter) RecordCacheMiss(cacheType string) {
	e.cacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordHTTPRequest records a served HTTP request.
func (e *PrometheusExporter) RecordHTTPRequest(method, route string, status int, latency time.Duration) {
	e.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	e.httpLatency.WithLabelValues(method, route).Observe(latency.Seconds())
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler for the metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.Handler().ServeHTTP(w, r)
}

// Registry returns the Prometheus registry.
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	return e.registry
}

// ExportText renders counters and gauges as "name{labels} value" lines,
// sorted, for the debug endpoint. Histograms report their sample count.
func (e *PrometheusExporter) ExportText() (string, error) {
	families, err := e.registry.Gather()
	if err != nil {
		return "", err
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var sb strings.Builder
			sb.WriteString(mf.GetName())
			if len(m.GetLabel()) > 0 {
				labels := make([]string, 0, len(m.GetLabel()))
				for _, label := range m.GetLabel() {
					labels = append(labels, label.GetName()+"=\""+label.GetValue()+"\"")
				}
				sort.Strings(labels)
				sb.WriteString("{" + strings.Join(labels, ",") + "}")
			}

			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			sb.WriteString(" " + strconv.FormatFloat(value, 'f', -1, 64))
			lines = append(lines, sb.String())
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}
