package model

import "time"

// HistoryReason describes how a recorded match ended for the player
type HistoryReason string

const (
	HistoryReasonScore        HistoryReason = "score"
	HistoryReasonOpponentLeft HistoryReason = "opponent_left"
	HistoryReasonLeft         HistoryReason = "left"
)

// HistoryRecord is one finished match seen from one participant's side
type HistoryRecord struct {
	Player     PlayerName    `json:"player"`
	Opponent   PlayerName    `json:"opponent"`
	MatchID    MatchID       `json:"match_id,omitempty"`
	Result     Result        `json:"result"`
	Reason     HistoryReason `json:"reason"`
	Score      string        `json:"score"` // Player's own score first
	FinishedAt time.Time     `json:"finished_at"`
}

// Labels describing a record's outcome for people
const (
	LabelWin             = "Win"
	LabelLose            = "Lose"
	LabelWinOpponentLeft = "Win (opponent left)"
	LabelLoseLeft        = "Lose (left)"
)

// Label returns the human-readable outcome, e.g. "Win (opponent left)"
func (r *HistoryRecord) Label() string {
	switch {
	case r.Result == ResultWin && r.Reason == HistoryReasonOpponentLeft:
		return LabelWinOpponentLeft
	case r.Result == ResultLose && r.Reason == HistoryReasonLeft:
		return LabelLoseLeft
	case r.Result == ResultWin:
		return LabelWin
	default:
		return LabelLose
	}
}

// HistoryRecordsFor builds the pair of records for a finished match
func HistoryRecordsFor(m *Match, winner PlayerName, now time.Time) []HistoryRecord {
	loser := m.Opponent(winner)
	winReason, loseReason := HistoryReasonScore, HistoryReasonScore
	if m.FinishReason == FinishReasonForfeit {
		winReason, loseReason = HistoryReasonOpponentLeft, HistoryReasonLeft
	}
	return []HistoryRecord{
		{
			Player:     winner,
			Opponent:   loser,
			MatchID:    m.ID,
			Result:     ResultWin,
			Reason:     winReason,
			Score:      m.ScoreFor(winner),
			FinishedAt: now,
		},
		{
			Player:     loser,
			Opponent:   winner,
			MatchID:    m.ID,
			Result:     ResultLose,
			Reason:     loseReason,
			Score:      m.ScoreFor(loser),
			FinishedAt: now,
		},
	}
}
