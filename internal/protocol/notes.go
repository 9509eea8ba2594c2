package protocol

import (
	"errors"

	"github.com/mcoot/rpsduel/internal/model"
)

// Error notes carried by ErrorMessage.Note
const (
	NoteNameRequired      = "name_required"
	NoteNameInvalid       = "name_invalid"
	NoteNameTaken         = "name_taken"
	NoteAlreadyRegistered = "already_registered"
	NoteNotRegistered     = "not_registered"
	NoteIdentityMismatch  = "identity_mismatch"
	NoteOpponentNotFound  = "opponent_not_found"
	NoteInvalidOpponent   = "invalid_opponent"
	NotePlayerOffline     = "one_player_offline"
	NoteAlreadyInMatch    = "already_in_match"
	NoteGameExists        = "game_exists"
	NoteMatchNotFound     = "match_not_found"
	NoteMatchFinished     = "match_finished"
	NoteUnknownAction     = "unknown_action"
	NoteBadJSON           = "bad_json"
	NoteMissingField      = "missing_field"
	NoteMessageTooLarge   = "message_too_large"
	NoteServerError       = "server_error"
)

var errorNotes = []struct {
	err  error
	note string
}{
	{model.ErrNameRequired, NoteNameRequired},
	{model.ErrNameInvalid, NoteNameInvalid},
	{model.ErrNameTaken, NoteNameTaken},
	{model.ErrAlreadyRegistered, NoteAlreadyRegistered},
	{model.ErrNotRegistered, NoteNotRegistered},
	{model.ErrIdentityMismatch, NoteIdentityMismatch},
	{model.ErrOpponentNotFound, NoteOpponentNotFound},
	{model.ErrSelfChallenge, NoteInvalidOpponent},
	{model.ErrPlayerOffline, NotePlayerOffline},
	{model.ErrAlreadyInMatch, NoteAlreadyInMatch},
	{model.ErrGameExists, NoteGameExists},
	{model.ErrMatchNotFound, NoteMatchNotFound},
	{model.ErrMatchFinished, NoteMatchFinished},
	{model.ErrUnknownAction, NoteUnknownAction},
	{model.ErrMalformedMessage, NoteBadJSON},
	{model.ErrMissingField, NoteMissingField},
	{model.ErrMessageTooLarge, NoteMessageTooLarge},
}

// ErrorNote maps an error to its wire note. Unrecognised errors become
// server_error so internal details never reach clients.
func ErrorNote(err error) string {
	for _, en := range errorNotes {
		if errors.Is(err, en.err) {
			return en.note
		}
	}
	return NoteServerError
}
