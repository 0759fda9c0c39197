package rules

import (
	"slices"

	"github.com/mcoot/plakoto/internal/model"
)

// LegalMoves lists every legal single-checker move for a side given the
// unused dice. Duplicate die values (doubles) are enumerated once.
func LegalMoves(b *model.Board, side model.Side, dice []int) []model.Move {
	var moves []model.Move
	forEachLegal(b, side, dice, func(mv model.Move) bool {
		moves = append(moves, mv)
		return true
	})
	return moves
}

// HasLegalMoves reports whether a side can move at all with the unused dice
func HasLegalMoves(b *model.Board, side model.Side, dice []int) bool {
	found := false
	forEachLegal(b, side, dice, func(model.Move) bool {
		found = true
		return false
	})
	return found
}

// MatchLegalMoves returns the legal moves for a player in a match, or nil
// unless the match is in play, it is their turn, and the dice are rolled.
func MatchLegalMoves(m *model.Match, player model.PlayerID) []model.Move {
	if CheckTurn(m, player) != nil {
		return nil
	}
	return LegalMoves(&m.Board, m.SideOf(player), m.MovesRemaining)
}

func forEachLegal(b *model.Board, side model.Side, dice []int, yield func(model.Move) bool) {
	if side == model.SideNone || len(dice) == 0 {
		return
	}

	dir := model.DirectionFor(side)
	opp := side.Opponent()
	values := distinct(dice)
	allHome := b.AllHome(side)
	furthest := b.FurthestHomePoint(side)

	for from := 1; from <= model.NumPoints; from++ {
		if b.Count(side, from) == 0 || b.IsPinned(side, from) {
			continue
		}
		for _, die := range values {
			to := dir.Target(from, die)

			if dir.PastEdge(to) {
				if !allHome {
					continue
				}
				if to == dir.Edge || from == furthest {
					if !yield(model.Move{From: from, To: model.BorneOff, Die: die}) {
						return
					}
				}
				continue
			}

			if b.Count(opp, to) >= 2 {
				continue
			}
			if b.Count(side, to) > 0 && b.IsPinned(side, to) {
				continue
			}
			if !yield(model.Move{From: from, To: to, Die: die}) {
				return
			}
		}
	}
}

func distinct(dice []int) []int {
	out := make([]int, 0, len(dice))
	for _, d := range dice {
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	return out
}
