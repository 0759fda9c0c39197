package testutil

import (
	"time"

	"github.com/mcoot/plakoto/internal/model"
)

// WaitingMatch returns a freshly created match with player 1 set up
func WaitingMatch(id model.MatchID, creator model.PlayerID, at time.Time) *model.Match {
	m := &model.Match{
		ID:        id,
		Player1:   creator,
		Status:    model.MatchStatusWaiting,
		Board:     model.NewBoard(),
		CreatedAt: at,
		UpdatedAt: at,
	}
	m.Board.Place(model.SidePlayer1, model.DirectionFor(model.SidePlayer1).Entry, model.CheckersPerSide)
	m.AppendLog(model.LogKindCreated, creator, "match created", at)
	return m
}

// PlayingMatch returns a match in its opening position with player 1 to move
func PlayingMatch(id model.MatchID, p1, p2 model.PlayerID, at time.Time) *model.Match {
	m := WaitingMatch(id, p1, at)
	m.Player2 = p2
	m.Status = model.MatchStatusPlaying
	m.CurrentTurn = p1
	m.Board.Place(model.SidePlayer2, model.DirectionFor(model.SidePlayer2).Entry, model.CheckersPerSide)
	m.AppendLog(model.LogKindJoined, p2, "joined the match", at)
	return m
}
