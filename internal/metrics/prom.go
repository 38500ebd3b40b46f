package metrics

import (
	"net/http"
	"sync"
	"time"

	"passive-genius/internal/shared"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors holds the Prometheus metrics exported by the service.
type Collectors struct {
	AgentCalls          *prometheus.CounterVec
	AgentLatency        *prometheus.HistogramVec
	AgentTokens         *prometheus.CounterVec
	Transitions         *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	collectorsOnce   sync.Once
	sharedCollectors *Collectors
)

// NewCollectors creates and registers all Prometheus metrics once per process.
func NewCollectors() *Collectors {
	collectorsOnce.Do(func() {
		sharedCollectors = &Collectors{
			AgentCalls: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "passive_genius_agent_calls_total",
					Help: "AI gateway calls by agent and outcome",
				},
				[]string{"agent", "outcome"},
			),
			AgentLatency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "passive_genius_agent_latency_seconds",
					Help:    "AI gateway call latency in seconds",
					Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2min
				},
				[]string{"agent"},
			),
			AgentTokens: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "passive_genius_agent_tokens_total",
					Help: "Tokens consumed by AI gateway calls",
				},
				[]string{"agent", "model", "kind"},
			),
			Transitions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "passive_genius_state_transitions_total",
					Help: "Application state transitions by target state",
				},
				[]string{"from", "to"},
			),
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "passive_genius_http_requests_total",
					Help: "HTTP requests by route pattern and status",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "passive_genius_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
		}
	})
	return sharedCollectors
}

// Observe records an agent call on the Prometheus collectors.
func Observe(meta shared.AgentMeta) {
	c := NewCollectors()
	outcome := meta.Outcome
	if outcome == "" {
		outcome = shared.OutcomeSuccess
	}
	c.AgentCalls.WithLabelValues(meta.AgentName, string(outcome)).Inc()
	c.AgentLatency.WithLabelValues(meta.AgentName).Observe(meta.Latency.Seconds())
	if meta.Usage.PromptTokens > 0 {
		c.AgentTokens.WithLabelValues(meta.AgentName, meta.Usage.Model, "prompt").Add(float64(meta.Usage.PromptTokens))
	}
	if meta.Usage.CompletionTokens > 0 {
		c.AgentTokens.WithLabelValues(meta.AgentName, meta.Usage.Model, "completion").Add(float64(meta.Usage.CompletionTokens))
	}
}

// ObserveTransition counts a state machine transition.
func ObserveTransition(from, to string) {
	NewCollectors().Transitions.WithLabelValues(from, to).Inc()
}

// ObserveHTTP records one served HTTP request.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	c := NewCollectors()
	c.HTTPRequestsTotal.WithLabelValues(method, route, http.StatusText(status)).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
