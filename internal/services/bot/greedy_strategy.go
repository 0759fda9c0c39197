package bot

import "github.com/mcoot/plakoto/internal/model"

// Move scoring weights for GreedyStrategy
const (
	scoreBearOff = 1000
	scorePin     = 100

	// penalty for lifting the last checker off a pin
	scoreRelease = 60

	// landing on a stack of our own
	scoreSafe = 20

	// splitting a pair leaves one checker exposed
	scoreLeaveLone = -30
)

// GreedyStrategy scores each legal move on the current board only and plays
// the best one. Ties go to the move listed first, so it is deterministic.
type GreedyStrategy struct{}

// NewGreedyStrategy creates a new GreedyStrategy
func NewGreedyStrategy() *GreedyStrategy {
	return &GreedyStrategy{}
}

// ChooseMove prefers bearing off, then pinning, then safe landings, and
// otherwise advances the checker furthest from home
func (s *GreedyStrategy) ChooseMove(m *model.Match, side model.Side, moves []model.Move) model.Move {
	best := moves[0]
	bestScore := score(&m.Board, side, best)
	for _, mv := range moves[1:] {
		if sc := score(&m.Board, side, mv); sc > bestScore {
			best, bestScore = mv, sc
		}
	}
	return best
}

func score(b *model.Board, side model.Side, mv model.Move) int {
	if mv.To == model.BorneOff {
		return scoreBearOff
	}

	dir := model.DirectionFor(side)
	opp := side.Opponent()
	sc := dir.Distance(mv.From, model.BorneOff) // favour the checker with furthest to go

	if b.Count(opp, mv.To) == 1 && !b.IsPinned(opp, mv.To) {
		sc += scorePin
	}
	if b.Count(side, mv.To) > 0 {
		sc += scoreSafe
	}
	if b.Count(side, mv.From) == 1 && b.IsPinned(opp, mv.From) {
		sc -= scoreRelease
	}
	if b.Count(side, mv.From) == 2 && b.Count(opp, mv.From) == 0 {
		sc += scoreLeaveLone
	}
	return sc
}
