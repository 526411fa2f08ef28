package urgency

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the classification engine.
type Metrics struct {
	ClassificationsTotal *prometheus.CounterVec
	ClassifyDuration     *prometheus.HistogramVec
	FallbacksTotal       *prometheus.CounterVec
	OverridesTotal       prometheus.Counter
	Confidence           prometheus.Histogram
	CacheLookupsTotal    *prometheus.CounterVec
	LLMCallsTotal        *prometheus.CounterVec
	LLMTokensIn          prometheus.Counter
	LLMTokensOut         prometheus.Counter
	LLMDuration          prometheus.Histogram
}

// NewMetrics registers and returns classification metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ClassificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urgency_classifications_total",
			Help: "Total classifications by outcome and urgency.",
		}, []string{"outcome", "urgency"}),
		ClassifyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "urgency_classify_duration_seconds",
			Help:    "End to end duration of Classify calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms .. ~16s
		}, []string{"outcome"}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urgency_fallbacks_total",
			Help: "Total fallback results by cause.",
		}, []string{"cause"}),
		OverridesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "urgency_overrides_total",
			Help: "Model answers whose urgency was replaced by the subcategory's tier.",
		}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "urgency_confidence",
			Help:    "Confidence of model classifications.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11), // 0 .. 1
		}),
		CacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urgency_cache_lookups_total",
			Help: "Cache lookups by result.",
		}, []string{"result"}),
		LLMCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urgency_llm_calls_total",
			Help: "Total LLM provider calls by status.",
		}, []string{"status"}),
		LLMTokensIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "urgency_llm_tokens_input_total",
			Help: "Total LLM input tokens consumed.",
		}),
		LLMTokensOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "urgency_llm_tokens_output_total",
			Help: "Total LLM output tokens consumed.",
		}),
		LLMDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "urgency_llm_call_duration_seconds",
			Help:    "Duration of individual LLM calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
		}),
	}

	reg.MustRegister(
		m.ClassificationsTotal,
		m.ClassifyDuration,
		m.FallbacksTotal,
		m.OverridesTotal,
		m.Confidence,
		m.CacheLookupsTotal,
		m.LLMCallsTotal,
		m.LLMTokensIn,
		m.LLMTokensOut,
		m.LLMDuration,
	)

	return m
}

// Hooks returns Hooks that update the corresponding metrics.
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnLLMCall: func(inputTokens, outputTokens int, duration float64, err error) {
			status := "success"
			if err != nil {
				status = ErrorKind(err)
			}
			m.LLMCallsTotal.WithLabelValues(status).Inc()
			m.LLMTokensIn.Add(float64(inputTokens))
			m.LLMTokensOut.Add(float64(outputTokens))
			m.LLMDuration.Observe(duration)
		},
		OnCache: func(hit bool) {
			result := "miss"
			if hit {
				result = "hit"
			}
			m.CacheLookupsTotal.WithLabelValues(result).Inc()
		},
		OnComplete: func(e *CompleteEvent) {
			m.ClassificationsTotal.WithLabelValues(string(e.Outcome), string(e.Urgency)).Inc()
			m.ClassifyDuration.WithLabelValues(string(e.Outcome)).Observe(e.Duration)
			if e.Outcome == OutcomeFallback {
				m.FallbacksTotal.WithLabelValues(string(e.Cause)).Inc()
			}
			if e.Outcome == OutcomeClassified {
				m.Confidence.Observe(e.Confidence)
			}
			if e.Overridden {
				m.OverridesTotal.Inc()
			}
		},
	}
}
