package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/plakoto/internal/dependencies/clock"
	"github.com/mcoot/plakoto/internal/dependencies/random"
	"github.com/mcoot/plakoto/internal/model"
	"github.com/mcoot/plakoto/internal/services/match"
	"github.com/mcoot/plakoto/internal/storage"
)

const (
	// PlayerIDAlphabet is the character set for generating bot player IDs
	PlayerIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	// PlayerIDLength is the length of generated bot player IDs
	PlayerIDLength = 16
	// MaxBotIterations is a safety limit for the ProcessBotActions loop
	MaxBotIterations = 1000
)

// BotActionType represents the type of action a bot took
type BotActionType string

const (
	ActionRoll         BotActionType = "roll"
	ActionMove         BotActionType = "move"
	ActionPass         BotActionType = "pass"
	ActionTurnComplete BotActionType = "turn_complete"
	ActionGameComplete BotActionType = "game_complete"
)

// BotAction represents a single action taken by a bot during ProcessBotActions
type BotAction struct {
	Type     BotActionType
	PlayerID model.PlayerID
	Die1     int
	Die2     int
	Move     model.Move
}

// Service manages bot players in matches
type Service struct {
	storage    storage.Storage
	controller match.ControllerInterface
	strategies map[string]Strategy
	clock      clock.Clock
	random     random.Random
	logger     *slog.Logger
}

// NewService creates a new bot Service
func NewService(
	store storage.Storage,
	controller match.ControllerInterface,
	strategies map[string]Strategy,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage:    store,
		controller: controller,
		strategies: strategies,
		clock:      clk,
		random:     rnd,
		logger:     logger.With(slog.String("component", "bot-service")),
	}
}

// CreateBotPlayer creates a new bot player and saves it to storage
func (s *Service) CreateBotPlayer(ctx context.Context, displayName string, strategy string) (*model.Player, error) {
	player := &model.Player{
		ID:          model.PlayerID("bot-" + s.random.String(PlayerIDLength, PlayerIDAlphabet)),
		DisplayName: displayName,
		IsGuest:     true,
		IsBot:       true,
		BotStrategy: strategy,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	return player, nil
}

// AddBot seats a new bot as the opponent in a waiting match. Only the
// match creator can do this.
func (s *Service) AddBot(ctx context.Context, id model.MatchID, requester model.PlayerID, strategy string) (*model.Player, *model.Match, error) {
	if strategy == "" {
		strategy = model.BotStrategyRandom
	}
	if _, ok := s.strategies[strategy]; !ok {
		return nil, nil, fmt.Errorf("%w: %s", model.ErrUnknownBotStrategy, strategy)
	}

	m, err := s.controller.GetMatch(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if m.Player1 != requester {
		return nil, nil, model.ErrNotMatchCreator
	}
	if m.Status != model.MatchStatusWaiting {
		return nil, nil, model.ErrMatchNotWaiting
	}

	displayName := model.BotStrategyDisplayName(strategy) + " Bot"
	bot, err := s.CreateBotPlayer(ctx, displayName, strategy)
	if err != nil {
		return nil, nil, err
	}

	joined, err := s.controller.JoinMatch(ctx, id, bot.ID)
	if err != nil {
		// Another player took the seat first
		if delErr := s.storage.DeletePlayer(ctx, bot.ID); delErr != nil {
			s.logger.Warn("failed to remove unseated bot",
				slog.String("bot_id", string(bot.ID)),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, nil, err
	}

	s.logger.Info("bot added to match",
		slog.String("match_id", string(id)),
		slog.String("bot_id", string(bot.ID)),
		slog.String("strategy", strategy),
	)

	return bot, joined, nil
}

// ProcessBotActions plays every consecutive bot turn in a match. It stops
// when the match is not in play or a human is to move, and returns the
// actions taken.
func (s *Service) ProcessBotActions(ctx context.Context, id model.MatchID) ([]BotAction, error) {
	var actions []BotAction

	for i := 0; i < MaxBotIterations; i++ {
		m, err := s.controller.GetMatch(ctx, id)
		if err != nil {
			return actions, err
		}
		if m.Status != model.MatchStatusPlaying {
			break
		}

		current, err := s.storage.GetPlayer(ctx, m.CurrentTurn)
		if err != nil {
			return actions, err
		}
		if !current.IsBot {
			break // Human's turn
		}

		action, err := s.step(ctx, m, current)
		if err != nil {
			return actions, err
		}
		actions = append(actions, action...)
	}

	return actions, nil
}

// step performs one bot action: roll, move or pass
func (s *Service) step(ctx context.Context, m *model.Match, bot *model.Player) ([]BotAction, error) {
	if !m.DiceRolled {
		res, err := s.controller.Roll(ctx, m.ID, bot.ID)
		if err != nil {
			return nil, err
		}
		return []BotAction{{Type: ActionRoll, PlayerID: bot.ID, Die1: res.Die1, Die2: res.Die2}}, nil
	}

	moves, err := s.controller.LegalMoves(ctx, m.ID, bot.ID)
	if err != nil {
		return nil, err
	}
	if len(moves) == 0 {
		if _, err := s.controller.Pass(ctx, m.ID, bot.ID); err != nil {
			return nil, err
		}
		return []BotAction{
			{Type: ActionPass, PlayerID: bot.ID},
			{Type: ActionTurnComplete, PlayerID: bot.ID},
		}, nil
	}

	choice := s.strategyForPlayer(bot).ChooseMove(m, m.SideOf(bot.ID), moves)
	res, err := s.controller.Move(ctx, m.ID, bot.ID, choice.From, choice.To)
	if err != nil {
		return nil, err
	}

	actions := []BotAction{{Type: ActionMove, PlayerID: bot.ID, Move: res.Move}}
	switch {
	case res.GameOver:
		actions = append(actions, BotAction{Type: ActionGameComplete, PlayerID: bot.ID})
	case res.TurnEnded:
		actions = append(actions, BotAction{Type: ActionTurnComplete, PlayerID: bot.ID})
	}
	return actions, nil
}

// strategyForPlayer returns the strategy for a bot player, falling back to
// the random strategy if the player's strategy is not registered
func (s *Service) strategyForPlayer(player *model.Player) Strategy {
	if st, ok := s.strategies[player.BotStrategy]; ok {
		return st
	}
	if st, ok := s.strategies[model.BotStrategyRandom]; ok {
		return st
	}
	for _, st := range s.strategies {
		return st
	}
	return nil
}
