package response

import (
	"time"

	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/services/history"
)

// Health is the response for the health endpoint
type Health struct {
	Status  string `json:"status"`
	Players int    `json:"players"`
	Matches int    `json:"matches"`
}

// Player represents an online player in API responses
type Player struct {
	Name    string `json:"name"`
	MatchID string `json:"match_id,omitempty"`
}

// PlayerList is the response for the players endpoint
type PlayerList struct {
	Players []Player `json:"players"`
}

// Match represents a live match in API responses
type Match struct {
	ID        string    `json:"id"`
	PlayerA   string    `json:"player_a"`
	PlayerB   string    `json:"player_b"`
	ScoreA    int       `json:"score_a"`
	ScoreB    int       `json:"score_b"`
	Score     string    `json:"score"`
	Round     int       `json:"round"`
	Pending   int       `json:"pending"`
	CreatedAt time.Time `json:"created_at"`
}

// MatchFromModel converts a model.Match. Pending moves are counted, never revealed.
func MatchFromModel(m *model.Match) Match {
	return Match{
		ID:        string(m.ID),
		PlayerA:   string(m.PlayerA),
		PlayerB:   string(m.PlayerB),
		ScoreA:    m.ScoreA,
		ScoreB:    m.ScoreB,
		Score:     m.Score(),
		Round:     m.Round,
		Pending:   len(m.PendingMoves),
		CreatedAt: m.CreatedAt,
	}
}

// MatchList is the response for the matches endpoint
type MatchList struct {
	Matches []Match `json:"matches"`
}

// HistoryRecord represents one finished match in a player's history
type HistoryRecord struct {
	Opponent   string    `json:"opponent"`
	MatchID    string    `json:"match_id,omitempty"`
	Result     string    `json:"result"`
	Reason     string    `json:"reason"`
	Score      string    `json:"score"`
	FinishedAt time.Time `json:"finished_at"`
}

// HistoryRecordFromModel converts a model.HistoryRecord
func HistoryRecordFromModel(r *model.HistoryRecord) HistoryRecord {
	return HistoryRecord{
		Opponent:   string(r.Opponent),
		MatchID:    string(r.MatchID),
		Result:     string(r.Result),
		Reason:     string(r.Reason),
		Score:      r.Score,
		FinishedAt: r.FinishedAt,
	}
}

// History is the response for the player history endpoint
type History struct {
	Player  string          `json:"player"`
	Records []HistoryRecord `json:"records"`
	Summary history.Summary `json:"summary"`
}
