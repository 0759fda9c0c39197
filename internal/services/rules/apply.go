package rules

import "github.com/mcoot/plakoto/internal/model"

// Effect describes what a move did beyond shifting one checker
type Effect struct {
	Pinned   bool // an opposing lone checker was pinned at the destination
	Unpinned bool // the last pinning checker left the source, freeing the opponent
	BoreOff  bool
}

// Apply moves one checker for a side. The move must already be validated.
func Apply(b *model.Board, side model.Side, mv model.Move) Effect {
	var eff Effect
	opp := side.Opponent()

	src := b.Stack(side, mv.From)
	src.Count--
	if src.Count == 0 {
		src.Pinned = false
		if b.IsPinned(opp, mv.From) {
			b.Stack(opp, mv.From).Pinned = false
			eff.Unpinned = true
		}
	}

	if mv.To == model.BorneOff {
		b.Place(side, model.BorneOff, 1)
		eff.BoreOff = true
		return eff
	}

	// Opposing count is read before arrival; validation guarantees it is 0 or 1
	if b.Count(opp, mv.To) == 1 && !b.IsPinned(opp, mv.To) {
		b.Stack(opp, mv.To).Pinned = true
		eff.Pinned = true
	}
	b.Place(side, mv.To, 1)

	return eff
}
