package redis

import (
	"fmt"

	"github.com/mcoot/plakoto/internal/model"
)

// Key prefix for all plakoto data
const keyPrefix = "plakoto"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// registeredPlayerKey returns the Redis key for a RegisteredPlayer
func registeredPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%s", keyPrefix, playerID)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// matchKey returns the Redis key for a Match document. Board, move history
// and log live inside the document so one SET commits them together.
func matchKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// matchesByStatusKey returns the Redis key for the SET of match IDs in a status
func matchesByStatusKey(status model.MatchStatus) string {
	return fmt.Sprintf("%s:idx:matches_by_status:%s", keyPrefix, status)
}

// matchesForPlayerKey returns the Redis key for the SET of a player's match IDs
func matchesForPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:matches_for_player:%s", keyPrefix, playerID)
}
