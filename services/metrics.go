package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	results     *prometheus.CounterVec
	advances    *prometheus.CounterVec
	scheduled   prometheus.Counter
	unscheduled prometheus.Counter
	reminders   *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tournament",
			Name:      "match_results_total",
			Help:      "Match results by how they were recorded.",
		}, []string{"kind"}),
		advances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tournament",
			Name:      "bracket_advances_total",
			Help:      "Entrants written into a later bracket match.",
		}, []string{"bracket"}),
		scheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tournament",
			Name:      "matches_scheduled_total",
			Help:      "Matches placed on a court.",
		}),
		unscheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tournament",
			Name:      "matches_unscheduled_total",
			Help:      "Matches the scheduler could not place.",
		}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tournament",
			Name:      "reminders_sent_total",
			Help:      "Reminder notifications created by the sweep.",
		}, []string{"type"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tournament",
			Name:      "operation_duration_seconds",
			Help:      "Duration of engine operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(m.results, m.advances, m.scheduled, m.unscheduled, m.reminders, m.duration)
	}
	return m
}

func (m *Metrics) resultRecorded(kind string) {
	if m != nil {
		m.results.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) advanced(bracket string) {
	if m != nil {
		if bracket == "" {
			bracket = "main"
		}
		m.advances.WithLabelValues(bracket).Inc()
	}
}

func (m *Metrics) scheduleRun(placed, unplaced int) {
	if m != nil {
		m.scheduled.Add(float64(placed))
		m.unscheduled.Add(float64(unplaced))
	}
}

func (m *Metrics) reminderSent(kind string) {
	if m != nil {
		m.reminders.WithLabelValues(kind).Inc()
	}
}

// observe is deferred as observe(op, time.Now()).
func (m *Metrics) observe(operation string, start time.Time) {
	if m != nil {
		m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
