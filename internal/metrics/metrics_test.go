package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.SetPlayersOnline(3)
		m.SetMatchesActive(1)
		m.MatchStarted()
		m.MatchFinished("score")
		m.RoundResolved("draw")
		m.MessageReceived("move")
		m.ProtocolError("bad_json")
		m.SessionOpened("tcp")
		m.HistoryDropped()
	})
}

func TestMetricsRecordValues(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SetPlayersOnline(4)
	m.MatchStarted()
	m.MatchStarted()
	m.MatchFinished("forfeit")
	m.RoundResolved("a_wins")
	m.RoundResolved("a_wins")
	m.ProtocolError("name_taken")

	assert.InDelta(t, 4, testutil.ToFloat64(m.PlayersOnline), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.MatchesStarted), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MatchesFinished.WithLabelValues("forfeit")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.RoundsResolved.WithLabelValues("a_wins")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ProtocolErrors.WithLabelValues("name_taken")), 0)
}

func TestNewRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.MatchFinished("score")
	m.RoundResolved("draw")
	m.MessageReceived("register")
	m.ProtocolError("bad_json")
	m.SessionOpened("tcp")

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.Len(t, families, 9)
}
