package storage

import (
	"context"

	"github.com/mcoot/plakoto/internal/model"
)

// MatchUpdateFunc mutates a working copy of a match. Returning an error
// discards every change and the stored match is left untouched.
type MatchUpdateFunc func(m *model.Match) error

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Registered player operations
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)

	// Match operations
	CreateMatch(ctx context.Context, match *model.Match) error
	GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
	// UpdateMatch loads a match, applies fn to a copy, and persists the match
	// row, board, move history and log together. Concurrent updates to the
	// same match are serialized.
	UpdateMatch(ctx context.Context, id model.MatchID, fn MatchUpdateFunc) (*model.Match, error)
	ListMatchesByStatus(ctx context.Context, status model.MatchStatus) ([]*model.Match, error)
	ListMatchesForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Match, error)
	DeleteMatch(ctx context.Context, id model.MatchID) error
}
