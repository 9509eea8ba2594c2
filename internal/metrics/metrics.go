// Package metrics exposes Prometheus collectors for the game server.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rpsduel"

// Metrics holds every collector the server updates
type Metrics struct {
	PlayersOnline         prometheus.Gauge
	MatchesActive         prometheus.Gauge
	MatchesStarted        prometheus.Counter
	MatchesFinished       *prometheus.CounterVec
	RoundsResolved        *prometheus.CounterVec
	Messages              *prometheus.CounterVec
	ProtocolErrors        *prometheus.CounterVec
	Sessions              *prometheus.CounterVec
	HistoryRecordsDropped prometheus.Counter
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PlayersOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "players_online",
			Help:      "Number of registered players currently connected",
		}),
		MatchesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "matches_active",
			Help:      "Number of matches in progress",
		}),
		MatchesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_started_total",
			Help:      "Total matches started",
		}),
		MatchesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_finished_total",
			Help:      "Total matches finished, by reason",
		}, []string{"reason"}),
		RoundsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_resolved_total",
			Help:      "Total rounds resolved, by outcome",
		}, []string{"outcome"}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Total inbound messages, by action",
		}, []string{"action"}),
		ProtocolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Total error replies sent, by note",
		}, []string{"note"}),
		Sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total client sessions opened, by transport",
		}, []string{"transport"}),
		HistoryRecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_dropped_total",
			Help:      "History records dropped because the writer queue was full",
		}),
	}

	reg.MustRegister(
		m.PlayersOnline,
		m.MatchesActive,
		m.MatchesStarted,
		m.MatchesFinished,
		m.RoundsResolved,
		m.Messages,
		m.ProtocolErrors,
		m.Sessions,
		m.HistoryRecordsDropped,
	)
	return m
}

// SetPlayersOnline records the size of the registry
func (m *Metrics) SetPlayersOnline(n int) {
	if m == nil {
		return
	}
	m.PlayersOnline.Set(float64(n))
}

// SetMatchesActive records the number of live matches
func (m *Metrics) SetMatchesActive(n int) {
	if m == nil {
		return
	}
	m.MatchesActive.Set(float64(n))
}

// MatchStarted counts a new match
func (m *Metrics) MatchStarted() {
	if m == nil {
		return
	}
	m.MatchesStarted.Inc()
}

// MatchFinished counts a finished match
func (m *Metrics) MatchFinished(reason string) {
	if m == nil {
		return
	}
	m.MatchesFinished.WithLabelValues(reason).Inc()
}

// RoundResolved counts a resolved round
func (m *Metrics) RoundResolved(outcome string) {
	if m == nil {
		return
	}
	m.RoundsResolved.WithLabelValues(outcome).Inc()
}

// MessageReceived counts an inbound message
func (m *Metrics) MessageReceived(action string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(action).Inc()
}

// ProtocolError counts an error reply
func (m *Metrics) ProtocolError(note string) {
	if m == nil {
		return
	}
	m.ProtocolErrors.WithLabelValues(note).Inc()
}

// SessionOpened counts a new client session
func (m *Metrics) SessionOpened(transport string) {
	if m == nil {
		return
	}
	m.Sessions.WithLabelValues(transport).Inc()
}

// HistoryDropped counts a history record that could not be queued
func (m *Metrics) HistoryDropped() {
	if m == nil {
		return
	}
	m.HistoryRecordsDropped.Inc()
}
