package model

import "errors"

// Common errors used across the application
var (
	// Registration errors
	ErrNameRequired      = errors.New("name is required")
	ErrNameInvalid       = errors.New("name is invalid")
	ErrNameTaken         = errors.New("name is already taken")
	ErrAlreadyRegistered = errors.New("connection is already registered")
	ErrNotRegistered     = errors.New("connection is not registered")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrIdentityMismatch  = errors.New("player does not match registered name")

	// Challenge and match errors
	ErrOpponentNotFound = errors.New("opponent not found")
	ErrSelfChallenge    = errors.New("cannot challenge yourself")
	ErrPlayerOffline    = errors.New("one player is offline")
	ErrAlreadyInMatch   = errors.New("player is already in a match")
	ErrGameExists       = errors.New("game already exists")
	ErrMatchNotFound    = errors.New("match not found")
	ErrMatchFinished    = errors.New("match is already finished")

	// Protocol errors
	ErrUnknownAction    = errors.New("unknown action")
	ErrMalformedMessage = errors.New("malformed message")
	ErrMissingField     = errors.New("missing required field")
	ErrMessageTooLarge  = errors.New("message too large")

	// History errors
	ErrHistoryUnavailable = errors.New("history is unavailable")
)
