package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/rpsduel/internal/model"
)

// Action names an inbound request
type Action string

const (
	ActionRegister          Action = "register"
	ActionList              Action = "list"
	ActionChallenge         Action = "challenge"
	ActionChallengeRequest  Action = "challenge_request"
	ActionAccept            Action = "accept"
	ActionDecline           Action = "decline"
	ActionChallengeResponse Action = "challenge_response"
	ActionMove              Action = "move"
	ActionQuit              Action = "quit"
)

// Command is a decoded inbound request. Exactly one of the *Command types
// below is returned by ParseCommand.
type Command interface {
	Action() Action
}

// RegisterCommand claims a display name for the connection
type RegisterCommand struct {
	Name string
}

// ListCommand asks for the current online list
type ListCommand struct{}

// ChallengeCommand invites another player to a match
type ChallengeCommand struct {
	From model.PlayerName // Optional, must match the session when set
	To   model.PlayerName
}

// AcceptCommand accepts a challenge from To
type AcceptCommand struct {
	From model.PlayerName
	To   model.PlayerName
}

// DeclineCommand declines a challenge from To
type DeclineCommand struct {
	From model.PlayerName
	To   model.PlayerName
}

// MoveCommand submits a move for the current round
type MoveCommand struct {
	Player  model.PlayerName
	Move    model.Move
	MatchID model.MatchID // Optional, defaults to the player's active match
}

// QuitCommand forfeits any active match and leaves
type QuitCommand struct {
	Player model.PlayerName
}

func (RegisterCommand) Action() Action  { return ActionRegister }
func (ListCommand) Action() Action      { return ActionList }
func (ChallengeCommand) Action() Action { return ActionChallenge }
func (AcceptCommand) Action() Action    { return ActionAccept }
func (DeclineCommand) Action() Action   { return ActionDecline }
func (MoveCommand) Action() Action      { return ActionMove }
func (QuitCommand) Action() Action      { return ActionQuit }

// inbound is the union of every field any action may carry
type inbound struct {
	Action  string  `json:"action"`
	Type    string  `json:"type"`
	Name    *string `json:"name"`
	From    string  `json:"from"`
	To      string  `json:"to"`
	Accept  *bool   `json:"accept"`
	Player  string  `json:"player"`
	Move    string  `json:"move"`
	MatchID string  `json:"match_id"`
}

// ParseCommand decodes one line into a Command. Errors wrap
// model.ErrMalformedMessage, model.ErrMissingField or model.ErrUnknownAction.
func ParseCommand(line []byte) (Command, error) {
	if !utf8.Valid(line) {
		return nil, fmt.Errorf("%w: invalid utf-8", model.ErrMalformedMessage)
	}

	var in inbound
	if err := json.Unmarshal(line, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedMessage, err)
	}

	action := strings.TrimSpace(in.Action)
	if action == "" {
		action = strings.TrimSpace(in.Type)
	}
	if action == "" {
		return nil, missingField("action")
	}

	to := model.PlayerName(strings.TrimSpace(in.To))
	from := model.PlayerName(strings.TrimSpace(in.From))

	switch Action(action) {
	case ActionRegister:
		if in.Name == nil {
			return nil, missingField("name")
		}
		return RegisterCommand{Name: *in.Name}, nil

	case ActionList:
		return ListCommand{}, nil

	case ActionChallenge, ActionChallengeRequest:
		if to == "" {
			return nil, missingField("to")
		}
		return ChallengeCommand{From: from, To: to}, nil

	case ActionAccept:
		if to == "" {
			return nil, missingField("to")
		}
		return AcceptCommand{From: from, To: to}, nil

	case ActionDecline:
		if to == "" {
			return nil, missingField("to")
		}
		return DeclineCommand{From: from, To: to}, nil

	case ActionChallengeResponse:
		if to == "" {
			return nil, missingField("to")
		}
		if in.Accept == nil {
			return nil, missingField("accept")
		}
		if *in.Accept {
			return AcceptCommand{From: from, To: to}, nil
		}
		return DeclineCommand{From: from, To: to}, nil

	case ActionMove:
		move := model.NormalizeMove(in.Move)
		if move == "" {
			return nil, missingField("move")
		}
		return MoveCommand{
			Player:  model.PlayerName(strings.TrimSpace(in.Player)),
			Move:    move,
			MatchID: model.MatchID(strings.TrimSpace(in.MatchID)),
		}, nil

	case ActionQuit:
		return QuitCommand{Player: model.PlayerName(strings.TrimSpace(in.Player))}, nil

	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownAction, action)
	}
}

func missingField(name string) error {
	return fmt.Errorf("%w: %s", model.ErrMissingField, name)
}
