package model

import "strings"

// Move is a hand played in a round
type Move string

const (
	MoveRock     Move = "rock"
	MovePaper    Move = "paper"
	MoveScissors Move = "scissors"
)

// NormalizeMove lowercases and trims a move label. The result may still be
// outside the valid set; the judge treats such labels as a draw.
func NormalizeMove(raw string) Move {
	return Move(strings.ToLower(strings.TrimSpace(raw)))
}

// Valid reports whether the move is one of rock, paper or scissors
func (m Move) Valid() bool {
	switch m {
	case MoveRock, MovePaper, MoveScissors:
		return true
	}
	return false
}

// Outcome is the result of a round from the first player's point of view
type Outcome int

const (
	OutcomeDraw Outcome = iota
	OutcomeAWins
	OutcomeBWins
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAWins:
		return "a_wins"
	case OutcomeBWins:
		return "b_wins"
	default:
		return "draw"
	}
}

// Result is an outcome seen from one participant's side
type Result string

const (
	ResultWin  Result = "win"
	ResultLose Result = "lose"
	ResultDraw Result = "draw"
)
