package model

import (
	"fmt"
	"maps"
	"time"
)

// MatchID uniquely identifies a match
type MatchID string

// MatchStatus represents the lifecycle phase of a match
type MatchStatus string

const (
	MatchStatusActive   MatchStatus = "active"
	MatchStatusFinished MatchStatus = "finished"
)

// WinThreshold is the number of round wins that ends a match (best of three)
const WinThreshold = 2

// FinishReason records why a match ended
type FinishReason string

const (
	FinishReasonScore   FinishReason = "score"
	FinishReasonForfeit FinishReason = "forfeit"
)

// Match is a head-to-head contest between a challenger (PlayerA) and the
// player who accepted (PlayerB)
type Match struct {
	ID      MatchID
	PlayerA PlayerName
	PlayerB PlayerName
	ScoreA  int
	ScoreB  int

	// Round is 1-indexed and advances after every resolved round, draws included
	Round int

	// PendingMoves holds moves received for the current round
	PendingMoves map[PlayerName]Move

	Status       MatchStatus
	FinishReason FinishReason

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMatch creates an active match at round one with no score
func NewMatch(id MatchID, challenger, accepter PlayerName, now time.Time) *Match {
	return &Match{
		ID:           id,
		PlayerA:      challenger,
		PlayerB:      accepter,
		Round:        1,
		PendingMoves: make(map[PlayerName]Move, 2),
		Status:       MatchStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasPlayer reports whether the player is a participant
func (m *Match) HasPlayer(p PlayerName) bool {
	return m.PlayerA == p || m.PlayerB == p
}

// Opponent returns the other participant. Only valid for participants.
func (m *Match) Opponent(p PlayerName) PlayerName {
	if m.PlayerA == p {
		return m.PlayerB
	}
	return m.PlayerA
}

// Score returns the score as "A-B" with the challenger first
func (m *Match) Score() string {
	return fmt.Sprintf("%d-%d", m.ScoreA, m.ScoreB)
}

// ScoreFor returns the score from the given participant's side as "mine-theirs"
func (m *Match) ScoreFor(p PlayerName) string {
	if m.PlayerB == p {
		return fmt.Sprintf("%d-%d", m.ScoreB, m.ScoreA)
	}
	return m.Score()
}

// Winner returns the participant who has reached the win threshold, if any
func (m *Match) Winner() (PlayerName, bool) {
	switch {
	case m.ScoreA >= WinThreshold:
		return m.PlayerA, true
	case m.ScoreB >= WinThreshold:
		return m.PlayerB, true
	}
	return "", false
}

// RoundReady reports whether both participants have moved this round
func (m *Match) RoundReady() bool {
	_, okA := m.PendingMoves[m.PlayerA]
	_, okB := m.PendingMoves[m.PlayerB]
	return okA && okB
}

// Clone returns a deep copy safe to hand outside the coordinator
func (m *Match) Clone() *Match {
	c := *m
	c.PendingMoves = maps.Clone(m.PendingMoves)
	if c.PendingMoves == nil {
		c.PendingMoves = make(map[PlayerName]Move)
	}
	return &c
}
