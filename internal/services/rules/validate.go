// Package rules implements Plakoto move legality, execution and turn
// resolution as pure functions over a match. Nothing here touches storage;
// callers hand in a working copy and persist it on success.
package rules

import (
	"fmt"
	"slices"

	"github.com/mcoot/plakoto/internal/model"
)

// CheckTurn verifies the match is in play, it is the player's turn, and
// the dice have been rolled.
func CheckTurn(m *model.Match, player model.PlayerID) error {
	if err := checkPlaying(m); err != nil {
		return err
	}
	if m.CurrentTurn != player {
		return model.ErrNotYourTurn
	}
	if !m.DiceRolled {
		return model.ErrMustRollFirst
	}
	return nil
}

func checkPlaying(m *model.Match) error {
	switch m.Status {
	case model.MatchStatusPlaying:
		return nil
	case model.MatchStatusFinished:
		return model.ErrMatchFinished
	default:
		return model.ErrMatchNotPlaying
	}
}

// Validate checks a proposed move for the player and returns the die value
// it would consume. Checks run in a fixed order and the first failure wins.
func Validate(m *model.Match, player model.PlayerID, from, to int) (int, error) {
	if err := CheckTurn(m, player); err != nil {
		return 0, err
	}
	if len(m.MovesRemaining) == 0 {
		return 0, model.ErrNoMovesRemaining
	}
	return ValidateOnBoard(&m.Board, m.SideOf(player), m.MovesRemaining, from, to)
}

// ValidateOnBoard applies the board-level checks for one side and a set of
// unused dice.
func ValidateOnBoard(b *model.Board, side model.Side, dice []int, from, to int) (int, error) {
	if from < 1 || from > model.NumPoints {
		return 0, fmt.Errorf("%w: from %d", model.ErrInvalidPoint, from)
	}
	if !model.ValidPoint(to) {
		return 0, fmt.Errorf("%w: to %d", model.ErrInvalidPoint, to)
	}

	if b.Count(side, from) == 0 {
		return 0, model.NoCheckersAt(from)
	}
	if b.IsPinned(side, from) {
		return 0, model.CheckerPinnedAt(from)
	}

	distance := model.DirectionFor(side).Distance(from, to)
	if distance <= 0 {
		return 0, model.ErrWrongDirection
	}

	die, ok := matchDie(b, side, dice, from, to, distance)
	if !ok {
		return 0, model.NoValidDieFor(distance)
	}

	if to != model.BorneOff {
		if b.Count(side.Opponent(), to) >= 2 {
			return 0, model.PointBlockedAt(to)
		}
		if b.Count(side, to) > 0 && b.IsPinned(side, to) {
			return 0, model.OwnStackPinnedAt(to)
		}
	} else if !b.AllHome(side) {
		return 0, model.ErrNotAllHome
	}

	return die, nil
}

// matchDie picks the die a move consumes. An exact die always wins. A
// bear-off may otherwise use a larger die when every checker is home and
// the source is the furthest occupied home point; the smallest such die is
// taken so larger ones stay available.
func matchDie(b *model.Board, side model.Side, dice []int, from, to, distance int) (int, bool) {
	if slices.Contains(dice, distance) {
		return distance, true
	}
	if to != model.BorneOff || !b.AllHome(side) || b.FurthestHomePoint(side) != from {
		return 0, false
	}

	best := 0
	for _, d := range dice {
		if d > distance && (best == 0 || d < best) {
			best = d
		}
	}
	return best, best > 0
}
