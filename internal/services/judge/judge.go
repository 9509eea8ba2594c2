// Package judge decides rounds of rock-paper-scissors.
package judge

import "github.com/mcoot/rpsduel/internal/model"

// beats maps each valid move to the move it defeats
var beats = map[model.Move]model.Move{
	model.MoveRock:     model.MoveScissors,
	model.MoveScissors: model.MovePaper,
	model.MovePaper:    model.MoveRock,
}

// Decide resolves a round between two moves. Labels are compared
// case-insensitively. Equal moves draw, and so does any move outside
// rock, paper and scissors on either side.
func Decide(a, b model.Move) model.Outcome {
	a, b = model.NormalizeMove(string(a)), model.NormalizeMove(string(b))
	if !a.Valid() || !b.Valid() || a == b {
		return model.OutcomeDraw
	}
	if beats[a] == b {
		return model.OutcomeAWins
	}
	return model.OutcomeBWins
}

// ResultFor converts an outcome into the result seen by one side.
// isA selects the first player's perspective.
func ResultFor(o model.Outcome, isA bool) model.Result {
	switch {
	case o == model.OutcomeDraw:
		return model.ResultDraw
	case (o == model.OutcomeAWins) == isA:
		return model.ResultWin
	default:
		return model.ResultLose
	}
}
