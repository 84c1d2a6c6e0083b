package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	Submissions      *prometheus.CounterVec
	StageTransitions *prometheus.CounterVec
	Reviews          *prometheus.CounterVec
	AgentDuration    *prometheus.HistogramVec
	MemoryInserts    *prometheus.CounterVec
}

// NewMetrics registers the pipeline collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Labels: mode (TEXT, IMAGE, AUDIO)
		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mentord",
				Subsystem: "orchestrator",
				Name:      "submissions_total",
				Help:      "Total number of accepted submissions by input mode",
			},
			[]string{"mode"},
		),
		StageTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mentord",
				Subsystem: "orchestrator",
				Name:      "stage_transitions_total",
				Help:      "Total number of session stage transitions by target stage",
			},
			[]string{"stage"},
		),
		// Labels: outcome (requested, confirmed, corrected, cancelled)
		Reviews: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mentord",
				Subsystem: "orchestrator",
				Name:      "reviews_total",
				Help:      "Total number of human review events by outcome",
			},
			[]string{"outcome"},
		),
		// Labels: agent (parser, solver), result (success, error)
		AgentDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mentord",
				Subsystem: "agent",
				Name:      "call_duration_seconds",
				Help:      "Duration of parser and solver agent calls in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"agent", "result"},
		),
		// Labels: source (system, user-correction)
		MemoryInserts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mentord",
				Subsystem: "memory",
				Name:      "inserts_total",
				Help:      "Total number of learning memory items inserted by source",
			},
			[]string{"source"},
		),
	}
}

func (m *Metrics) submission(mode Mode) {
	if m != nil {
		m.Submissions.WithLabelValues(string(mode)).Inc()
	}
}

func (m *Metrics) transition(stage Stage) {
	if m != nil {
		m.StageTransitions.WithLabelValues(string(stage)).Inc()
	}
}

func (m *Metrics) review(outcome string) {
	if m != nil {
		m.Reviews.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) agentCall(agent, result string, d time.Duration) {
	if m != nil {
		m.AgentDuration.WithLabelValues(agent, result).Observe(d.Seconds())
	}
}

func (m *Metrics) memoryInsert(source string) {
	if m != nil {
		m.MemoryInserts.WithLabelValues(source).Inc()
	}
}
