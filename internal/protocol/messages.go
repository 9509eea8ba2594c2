package protocol

// Outbound message types, carried in the "type" field
const (
	TypeOK                = "ok"
	TypeOnlineList        = "online_list"
	TypeSystem            = "system"
	TypeChallenge         = "challenge"
	TypeChallengeDeclined = "challenge_declined"
	TypeMatchStart        = "match_start"
	TypeRoundResult       = "round_result"
	TypeMatchEnd          = "match_end"
	TypeError             = "error"
)

// NoteRegistered is the note on the ok reply to register
const NoteRegistered = "registered"

// ReasonOpponentLeft marks a match won by forfeit
const ReasonOpponentLeft = "opponent_left"

// OKMessage acknowledges a request
type OKMessage struct {
	Type string `json:"type"`
	Note string `json:"note"`
	Name string `json:"name,omitempty"`
}

// OnlineListMessage lists the other players online
type OnlineListMessage struct {
	Type    string   `json:"type"`
	Players []string `json:"players"`
}

// SystemMessage is a human-readable announcement
type SystemMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ChallengeMessage tells a player someone wants a match
type ChallengeMessage struct {
	Type string `json:"type"`
	From string `json:"from"`
}

// ChallengeDeclinedMessage tells a challenger the invitation was declined
type ChallengeDeclinedMessage struct {
	Type string `json:"type"`
	From string `json:"from"`
}

// MatchStartMessage announces a new match
type MatchStartMessage struct {
	Type     string `json:"type"`
	Opponent string `json:"opponent"`
	MatchID  string `json:"match_id"`
	YouAre   string `json:"you_are"`
	Message  string `json:"message,omitempty"`
}

// RoundResultMessage reports a resolved round
type RoundResultMessage struct {
	Type         string `json:"type"`
	MatchID      string `json:"match_id"`
	Round        int    `json:"round"`
	You          string `json:"you"`
	YourMove     string `json:"your_move"`
	OpponentMove string `json:"opponent_move"`
	Score        string `json:"score"`
	Message      string `json:"message,omitempty"`
}

// MatchEndMessage reports the end of a match
type MatchEndMessage struct {
	Type    string `json:"type"`
	MatchID string `json:"match_id"`
	Result  string `json:"result"`
	Score   string `json:"score"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorMessage reports a failed request
type ErrorMessage struct {
	Type    string `json:"type"`
	Note    string `json:"note"`
	Message string `json:"message"`
}
