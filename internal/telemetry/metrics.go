// Package telemetry holds the simulation metrics. Labels are bounded: no
// per-void or per-object label values.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "void_tick_duration_seconds",
		Help:    "Time spent in a simulation tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025},
	})

	objectsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "void_objects_consumed_total",
		Help: "Objects swallowed by voids",
	}, []string{"role"}) // Bounded: "player", "autonomous"

	growthEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "void_growth_events_total",
		Help: "Growth events applied",
	})

	voidCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "void_live_voids",
		Help: "Voids in the current match",
	})

	activeConsumables = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "void_active_consumables",
		Help: "Objects not yet consumed",
	})

	timeLeft = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "void_match_time_left_seconds",
		Help: "Seconds left on the match clock",
	})

	phaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "void_phase_transitions_total",
		Help: "Match phase transitions by target phase",
	}, []string{"phase"}) // Bounded: "MENU", "PLAYING", "GAME_OVER"

	journalDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "void_journal_dropped_total",
		Help: "Journal events dropped by rate limit or a full buffer",
	})
)

// RecordTick records tick timing
func RecordTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

// RecordConsumed counts one swallowed object
func RecordConsumed(isPlayer bool) {
	role := "autonomous"
	if isPlayer {
		role = "player"
	}
	objectsConsumed.WithLabelValues(role).Inc()
}

// RecordGrowth counts applied growth events
func RecordGrowth(n int) {
	if n > 0 {
		growthEvents.Add(float64(n))
	}
}

// SetVoids updates the live void gauge
func SetVoids(n int) {
	voidCount.Set(float64(n))
}

// SetActiveConsumables updates the active object gauge
func SetActiveConsumables(n int) {
	activeConsumables.Set(float64(n))
}

// SetTimeLeft updates the clock gauge
func SetTimeLeft(seconds int) {
	timeLeft.Set(float64(seconds))
}

// RecordPhase counts a transition into phase
func RecordPhase(phase string) {
	phaseTransitions.WithLabelValues(phase).Inc()
}

// RecordJournalDropped adds newly dropped journal events
func RecordJournalDropped(delta uint64) {
	if delta > 0 {
		journalDropped.Add(float64(delta))
	}
}
