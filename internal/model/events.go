package model

// EventType identifies the type of outbound event
type EventType string

const (
	// Presence events
	EventRegistered EventType = "registered"
	EventOnlineList EventType = "online_list"
	EventSystem     EventType = "system"

	// Challenge events
	EventChallenge         EventType = "challenge"
	EventChallengeDeclined EventType = "challenge_declined"

	// Match events
	EventMatchStart  EventType = "match_start"
	EventRoundResult EventType = "round_result"
	EventMatchEnd    EventType = "match_end"

	EventError EventType = "error"
)

// Event is an outbound notification addressed to one player.
// An empty To addresses the connection that caused the event.
type Event struct {
	To      PlayerName
	Type    EventType
	Payload any // Type-specific data
}

// RegisteredPayload confirms a successful registration
type RegisteredPayload struct {
	Name PlayerName
}

// OnlineListPayload lists the other players currently online
type OnlineListPayload struct {
	Players []PlayerName
}

// SystemKind identifies a system announcement
type SystemKind string

const (
	SystemJoined SystemKind = "joined"
	SystemLeft   SystemKind = "left"
)

// SystemPayload announces a presence change to other players
type SystemPayload struct {
	Kind   SystemKind
	Player PlayerName
}

// ChallengePayload notifies a player that they have been challenged
type ChallengePayload struct {
	From PlayerName
}

// ChallengeDeclinedPayload notifies a challenger that the target said no
type ChallengeDeclinedPayload struct {
	From PlayerName
}

// Seat is a participant's position in a match
type Seat string

const (
	SeatChallenger Seat = "p1"
	SeatAccepter   Seat = "p2"
)

// MatchStartPayload tells a participant a match has begun
type MatchStartPayload struct {
	MatchID  MatchID
	Opponent PlayerName
	Seat     Seat
}

// RoundResultPayload reports a resolved round from the recipient's side
type RoundResultPayload struct {
	MatchID      MatchID
	Round        int
	Result       Result
	YourMove     Move
	OpponentMove Move
	Score        string // Challenger first, identical for both participants
}

// MatchEndPayload reports the end of a match from the recipient's side
type MatchEndPayload struct {
	MatchID MatchID
	Result  Result
	Score   string
	Reason  FinishReason
}

// ErrorPayload reports a failed request back to the requester
type ErrorPayload struct {
	Err error
}
