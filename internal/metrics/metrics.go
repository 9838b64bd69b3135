package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Chat metrics
	ChatRequestsTotal   *prometheus.CounterVec
	ChatDurationSeconds prometheus.Histogram

	// Retrieval metrics
	RetrievalStrategyTotal *prometheus.CounterVec
	RetrievalResults       prometheus.Histogram

	// Command metrics
	CommandTotal          *prometheus.CounterVec
	AttendanceWritesTotal *prometheus.CounterVec

	// LLM metrics
	LLMRequestsTotal   *prometheus.CounterVec
	LLMDurationSeconds *prometheus.HistogramVec

	// Corpus metrics
	CorpusSegments     prometheus.Gauge
	CorpusReloadsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// Chat metrics
		ChatRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_chat_requests_total",
				Help: "Total number of chat requests by outcome",
			},
			[]string{"status"}, // status: success, error, rate_limited
		),

		ChatDurationSeconds: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "campus_chat_duration_seconds",
				Help:    "End-to-end chat request duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60}, // Dominated by the model call
			},
		),

		// Retrieval metrics
		RetrievalStrategyTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_retrieval_strategy_total",
				Help: "Total number of retrievals by selected strategy",
			},
			[]string{"strategy"}, // strategy: rule_override, similarity, unavailable
		),

		RetrievalResults: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "campus_retrieval_results",
				Help:    "Number of segments placed into the context per retrieval",
				Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
			},
		),

		// Command metrics
		CommandTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_command_total",
				Help: "Total number of resolved model commands by action and outcome",
			},
			[]string{"action", "outcome"}, // outcome: applied, no_match, parse_error, store_error
		),

		AttendanceWritesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_attendance_writes_total",
				Help: "Total number of attendance upserts by status",
			},
			[]string{"status"},
		),

		// LLM metrics
		LLMRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_llm_requests_total",
				Help: "Total number of language model requests by provider and status",
			},
			[]string{"provider", "status"}, // status: success, error, fallback
		),

		LLMDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campus_llm_duration_seconds",
				Help:    "Language model request duration in seconds by provider",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45},
			},
			[]string{"provider"}, // provider: gemini, groq
		),

		// Corpus metrics
		CorpusSegments: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "campus_corpus_segments",
				Help: "Number of segments in the currently loaded corpus",
			},
		),

		CorpusReloadsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_corpus_reloads_total",
				Help: "Total number of corpus reloads by status",
			},
			[]string{"status"}, // status: success, error
		),

		// Rate limiter metrics
		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: chat
		),
	}

	return m
}

// RecordChat records a chat request with status
func (m *Metrics) RecordChat(status string, duration float64) {
	m.ChatRequestsTotal.WithLabelValues(status).Inc()
	m.ChatDurationSeconds.Observe(duration)
}

// RecordRetrieval records the selected strategy and how many segments it produced
func (m *Metrics) RecordRetrieval(strategy string, results int) {
	m.RetrievalStrategyTotal.WithLabelValues(strategy).Inc()
	m.RetrievalResults.Observe(float64(results))
}

// RecordCommand records a resolved command
func (m *Metrics) RecordCommand(action, outcome string) {
	m.CommandTotal.WithLabelValues(action, outcome).Inc()
}

// RecordAttendanceWrite records one attendance upsert
func (m *Metrics) RecordAttendanceWrite(status string) {
	m.AttendanceWritesTotal.WithLabelValues(status).Inc()
}

// RecordLLM records a language model request
func (m *Metrics) RecordLLM(provider, status string, duration float64) {
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMDurationSeconds.WithLabelValues(provider).Observe(duration)
}

// SetCorpusSegments sets the loaded corpus size
func (m *Metrics) SetCorpusSegments(n int) {
	m.CorpusSegments.Set(float64(n))
}

// RecordCorpusReload records a corpus reload attempt
func (m *Metrics) RecordCorpusReload(status string) {
	m.CorpusReloadsTotal.WithLabelValues(status).Inc()
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}
