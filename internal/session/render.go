package session

import (
	"fmt"
	"log/slog"

	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/msgcat"
	"github.com/mcoot/rpsduel/internal/protocol"
)

// Renderer turns events into wire messages, filling in player-facing text
// from the message catalog
type Renderer struct {
	catalog *msgcat.Catalog
	logger  *slog.Logger
}

// NewRenderer creates a new Renderer
func NewRenderer(catalog *msgcat.Catalog, logger *slog.Logger) *Renderer {
	return &Renderer{catalog: catalog, logger: logger}
}

// Render returns the wire message for ev
func (r *Renderer) Render(ev model.Event) (any, error) {
	switch p := ev.Payload.(type) {
	case model.RegisteredPayload:
		return protocol.OKMessage{
			Type: protocol.TypeOK,
			Note: protocol.NoteRegistered,
			Name: string(p.Name),
		}, nil

	case model.OnlineListPayload:
		return protocol.OnlineListMessage{
			Type:    protocol.TypeOnlineList,
			Players: names(p.Players),
		}, nil

	case model.SystemPayload:
		key := msgcat.KeySystemJoined
		if p.Kind == model.SystemLeft {
			key = msgcat.KeySystemLeft
		}
		return protocol.SystemMessage{
			Type:    protocol.TypeSystem,
			Message: r.text(key, map[string]any{"Player": p.Player}),
		}, nil

	case model.ChallengePayload:
		return protocol.ChallengeMessage{Type: protocol.TypeChallenge, From: string(p.From)}, nil

	case model.ChallengeDeclinedPayload:
		return protocol.ChallengeDeclinedMessage{Type: protocol.TypeChallengeDeclined, From: string(p.From)}, nil

	case model.MatchStartPayload:
		return protocol.MatchStartMessage{
			Type:     protocol.TypeMatchStart,
			Opponent: string(p.Opponent),
			MatchID:  string(p.MatchID),
			YouAre:   string(p.Seat),
			Message:  r.text(msgcat.KeyMatchStart, map[string]any{"Opponent": p.Opponent, "Seat": p.Seat}),
		}, nil

	case model.RoundResultPayload:
		key := msgcat.KeyRoundDraw
		switch p.Result {
		case model.ResultWin:
			key = msgcat.KeyRoundWin
		case model.ResultLose:
			key = msgcat.KeyRoundLose
		}
		return protocol.RoundResultMessage{
			Type:         protocol.TypeRoundResult,
			MatchID:      string(p.MatchID),
			Round:        p.Round,
			You:          string(p.Result),
			YourMove:     string(p.YourMove),
			OpponentMove: string(p.OpponentMove),
			Score:        p.Score,
			Message: r.text(key, map[string]any{
				"Round":        p.Round,
				"YourMove":     p.YourMove,
				"OpponentMove": p.OpponentMove,
				"Score":        p.Score,
			}),
		}, nil

	case model.MatchEndPayload:
		msg := protocol.MatchEndMessage{
			Type:    protocol.TypeMatchEnd,
			MatchID: string(p.MatchID),
			Result:  string(p.Result),
			Score:   p.Score,
		}
		key := msgcat.KeyMatchLose
		switch {
		case p.Reason == model.FinishReasonForfeit:
			msg.Reason = protocol.ReasonOpponentLeft
			key = msgcat.KeyMatchForfeit
		case p.Result == model.ResultWin:
			key = msgcat.KeyMatchWin
		}
		msg.Message = r.text(key, map[string]any{"Score": p.Score})
		return msg, nil

	case model.ErrorPayload:
		note := protocol.ErrorNote(p.Err)
		text := r.text(msgcat.ErrorKey(note), nil)
		if text == "" {
			text = note
		}
		return protocol.ErrorMessage{
			Type:    protocol.TypeError,
			Note:    note,
			Message: text,
		}, nil
	}

	return nil, fmt.Errorf("no wire message for event %s (%T)", ev.Type, ev.Payload)
}

// text renders a catalog entry. Failures are logged and yield "" so a bad
// override never blocks delivery.
func (r *Renderer) text(key string, data any) string {
	if r.catalog == nil {
		return ""
	}
	s, err := r.catalog.Render(key, data)
	if err != nil {
		r.logger.Warn("failed to render message",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return s
}

func names(players []model.PlayerName) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = string(p)
	}
	return out
}
