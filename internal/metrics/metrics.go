package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the trivia Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RoundsStarted      prometheus.Counter
	RoundsResolved     *prometheus.CounterVec
	Answers            *prometheus.CounterVec
	GenerationFailures prometheus.Counter
	SideEffectFailures *prometheus.CounterVec
	LiveRounds         prometheus.Gauge
}

// NewMetrics creates a metrics set registered on its own registry.
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	serviceName = subsystem(serviceName)

	return &Metrics{
		registry: reg,
		RoundsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "trivia",
			Subsystem: serviceName,
			Name:      "rounds_started_total",
			Help:      "Total number of trivia rounds started",
		}),
		RoundsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Subsystem: serviceName,
			Name:      "rounds_resolved_total",
			Help:      "Total number of trivia rounds resolved",
		}, []string{"outcome"}), // answered | expired
		Answers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Subsystem: serviceName,
			Name:      "answers_total",
			Help:      "Total number of submitted answers",
		}, []string{"outcome"}),
		GenerationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "trivia",
			Subsystem: serviceName,
			Name:      "generation_failures_total",
			Help:      "Question generation attempts that failed",
		}),
		SideEffectFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Subsystem: serviceName,
			Name:      "side_effect_failures_total",
			Help:      "Failed score or announcement side effects",
		}, []string{"collaborator"}),
		LiveRounds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "trivia",
			Subsystem: serviceName,
			Name:      "live_rounds",
			Help:      "Rounds currently holding a channel slot",
		}),
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RoundStarted() {
	if m == nil {
		return
	}
	m.RoundsStarted.Inc()
	m.LiveRounds.Inc()
}

func (m *Metrics) RoundResolved(outcome string) {
	if m == nil {
		return
	}
	m.RoundsResolved.WithLabelValues(outcome).Inc()
	m.LiveRounds.Dec()
}

func (m *Metrics) AnswerSubmitted(outcome string) {
	if m == nil {
		return
	}
	m.Answers.WithLabelValues(outcome).Inc()
}

func (m *Metrics) GenerationFailed() {
	if m == nil {
		return
	}
	m.GenerationFailures.Inc()
}

func (m *Metrics) SideEffectFailed(collaborator string) {
	if m == nil {
		return
	}
	m.SideEffectFailures.WithLabelValues(collaborator).Inc()
}

// subsystem maps a service name such as "trivia-bot" onto a valid metric name segment.
func subsystem(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
