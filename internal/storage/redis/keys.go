package redis

import (
	"fmt"

	"github.com/mcoot/rpsduel/internal/model"
)

// Key prefix for all rpsduel data
const keyPrefix = "rpsduel"

// historyKey returns the Redis key for a player's history list
func historyKey(player model.PlayerName) string {
	return fmt.Sprintf("%s:history:%s", keyPrefix, player)
}
