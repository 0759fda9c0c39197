package bot

import (
	"github.com/mcoot/plakoto/internal/dependencies/random"
	"github.com/mcoot/plakoto/internal/model"
)

// RandomStrategy plays a uniformly random legal move
type RandomStrategy struct {
	random random.Random
}

// NewRandomStrategy creates a new RandomStrategy
func NewRandomStrategy(rnd random.Random) *RandomStrategy {
	return &RandomStrategy{random: rnd}
}

// ChooseMove picks any of the legal moves
func (s *RandomStrategy) ChooseMove(m *model.Match, side model.Side, moves []model.Move) model.Move {
	return moves[s.random.Intn(len(moves))]
}
