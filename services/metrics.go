package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Dosada05/x1-arena/models"
)

// Metrics are the tournament counters exposed on /metrics.
type Metrics struct {
	ResultsReported    *prometheus.CounterVec
	ResultsInvalidated *prometheus.CounterVec
	PlayersRegistered  prometheus.Counter
	SyncFailures       prometheus.Counter
	Players            *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ResultsReported: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_results_reported_total",
			Help: "Match results recorded, by match kind.",
		}, []string{"kind"}),
		ResultsInvalidated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_results_invalidated_total",
			Help: "Match results invalidated, by match kind.",
		}, []string{"kind"}),
		PlayersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "arena_players_registered_total",
			Help: "Successful player registrations.",
		}),
		SyncFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "arena_sync_failures_total",
			Help: "Snapshot uploads that failed or were rejected by the circuit breaker.",
		}),
		Players: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arena_players",
			Help: "Registered players by status.",
		}, []string{"status"}),
	}
}

func (m *Metrics) observeState(state models.TournamentState) {
	if m == nil {
		return
	}
	for status, n := range state.CountByStatus() {
		m.Players.WithLabelValues(string(status)).Set(float64(n))
	}
}
