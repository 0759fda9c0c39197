package bot

import (
	"github.com/mcoot/plakoto/internal/dependencies/random"
	"github.com/mcoot/plakoto/internal/model"
)

// Strategy decides which legal move a bot plays
type Strategy interface {
	// ChooseMove selects one of moves, which is never empty
	ChooseMove(m *model.Match, side model.Side, moves []model.Move) model.Move
}

// DefaultStrategies returns every built-in strategy keyed by name
func DefaultStrategies(rnd random.Random) map[string]Strategy {
	return map[string]Strategy{
		model.BotStrategyRandom: NewRandomStrategy(rnd),
		model.BotStrategyGreedy: NewGreedyStrategy(),
	}
}
