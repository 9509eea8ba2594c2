package model

import (
	"strings"
	"unicode"
)

// PlayerName identifies a player for as long as their connection is live
type PlayerName string

// MaxNameLength is the longest display name accepted at registration
const MaxNameLength = 32

// NormalizeName trims surrounding whitespace from a requested name and
// validates what is left.
func NormalizeName(raw string) (PlayerName, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrNameRequired
	}
	if len([]rune(name)) > MaxNameLength {
		return "", ErrNameInvalid
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", ErrNameInvalid
		}
	}
	return PlayerName(name), nil
}

// OnlinePlayer is a read-only view of a registered player
type OnlinePlayer struct {
	Name    PlayerName
	MatchID MatchID // Empty when the player is not in a match
}
