package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/plakoto/internal/dependencies/clock"
	"github.com/mcoot/plakoto/internal/dependencies/dice"
	"github.com/mcoot/plakoto/internal/dependencies/random"
	"github.com/mcoot/plakoto/internal/model"
	"github.com/mcoot/plakoto/internal/services/rules"
	"github.com/mcoot/plakoto/internal/storage"
)

const (
	// IDAlphabet is the character set for match IDs
	IDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// IDLength is the length of generated match IDs
	IDLength = 12
	// LogTailSize is how many log entries a state view carries
	LogTailSize = 20

	createAttempts = 5
)

// RollResult is the outcome of a successful roll
type RollResult struct {
	Die1           int
	Die2           int
	Doubles        bool
	MovesRemaining []int
	Match          *model.Match
}

// MoveResult is the outcome of a successful move
type MoveResult struct {
	Move      model.Move // Die is the value actually consumed
	Pinned    bool
	Unpinned  bool
	BoreOff   bool
	TurnEnded bool
	GameOver  bool
	Winner    model.PlayerID
	Match     *model.Match
}

// Summary is a listed match with its players' display names resolved
type Summary struct {
	Match       *model.Match
	Player1Name string
	Player2Name string
}

// State is a match as seen by one viewer
type State struct {
	Match       *model.Match
	Player1Name string
	Player2Name string
	ViewerSide  model.Side
	IsMyTurn    bool
	LegalMoves  []model.Move
	Log         []model.LogEntry
}

// Controller runs the match lifecycle and turn flow. Every mutation is a
// single storage.UpdateMatch call, so a rejected operation never changes
// the stored match.
type Controller struct {
	storage storage.Storage
	dice    dice.Dice
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a new match Controller
func NewController(
	store storage.Storage,
	dc dice.Dice,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: store,
		dice:    dc,
		clock:   clk,
		random:  rnd,
		logger:  logger.With(slog.String("component", "match-controller")),
	}
}

// CreateMatch opens a new match with the creator seated as player 1
func (c *Controller) CreateMatch(ctx context.Context, creator model.PlayerID) (*model.Match, error) {
	now := c.clock.Now()

	for i := 0; i < createAttempts; i++ {
		m := &model.Match{
			ID:        model.MatchID(c.random.String(IDLength, IDAlphabet)),
			Player1:   creator,
			Status:    model.MatchStatusWaiting,
			Board:     model.NewBoard(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		rules.SetUp(&m.Board, model.SidePlayer1)
		m.AppendLog(model.LogKindCreated, creator, "player1 created the match", now)

		err := c.storage.CreateMatch(ctx, m)
		if errors.Is(err, model.ErrMatchExists) {
			continue
		}
		if err != nil {
			c.logFailure("create match", "", err)
			return nil, err
		}

		c.logger.Info("match created",
			slog.String("match_id", string(m.ID)),
			slog.String("player_id", string(creator)),
		)
		return m, nil
	}
	return nil, model.ErrMatchExists
}

// JoinMatch seats a second player, sets up their checkers and decides who
// moves first by rolling one die each until the values differ
func (c *Controller) JoinMatch(ctx context.Context, id model.MatchID, joiner model.PlayerID) (*model.Match, error) {
	m, err := c.update(ctx, "join match", id, func(m *model.Match) error {
		if m.Status != model.MatchStatusWaiting {
			return model.ErrMatchNotWaiting
		}
		if m.Player1 == joiner {
			return model.ErrCannotJoinOwn
		}

		now := c.clock.Now()
		m.Player2 = joiner
		m.Status = model.MatchStatusPlaying
		rules.SetUp(&m.Board, model.SidePlayer2)
		m.AppendLog(model.LogKindJoined, joiner, "player2 joined the match", now)

		r1, r2 := c.dice.Roll(), c.dice.Roll()
		for r1 == r2 {
			r1, r2 = c.dice.Roll(), c.dice.Roll()
		}
		first := model.SidePlayer1
		if r2 > r1 {
			first = model.SidePlayer2
		}
		m.CurrentTurn = m.PlayerFor(first)
		m.ClearDice()
		m.AppendLog(model.LogKindFirstTurn, m.CurrentTurn,
			fmt.Sprintf("player1 rolled %d, player2 rolled %d: %s goes first", r1, r2, first), now)
		m.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("match joined",
		slog.String("match_id", string(id)),
		slog.String("player_id", string(joiner)),
		slog.String("first_turn", string(m.CurrentTurn)),
	)
	return m, nil
}

// Roll draws the dice for the current player's turn. A roll with no legal
// moves does not end the turn; the player must pass.
func (c *Controller) Roll(ctx context.Context, id model.MatchID, player model.PlayerID) (*RollResult, error) {
	var result RollResult
	m, err := c.update(ctx, "roll", id, func(m *model.Match) error {
		if err := rules.CheckRoll(m, player); err != nil {
			return err
		}

		d1, d2 := c.dice.Roll(), c.dice.Roll()
		rules.ApplyRoll(m, d1, d2)

		now := c.clock.Now()
		msg := fmt.Sprintf("%s rolled %d and %d", m.SideOf(player), d1, d2)
		if d1 == d2 {
			msg += " (doubles)"
		}
		m.AppendLog(model.LogKindRoll, player, msg, now)
		m.UpdatedAt = now

		result = RollResult{Die1: d1, Die2: d2, Doubles: d1 == d2}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.MovesRemaining = m.MovesRemaining
	result.Match = m
	c.logger.Debug("dice rolled",
		slog.String("match_id", string(id)),
		slog.String("player_id", string(player)),
		slog.Int("die1", result.Die1),
		slog.Int("die2", result.Die2),
	)
	return &result, nil
}

// LegalMoves lists the player's legal moves. It is empty unless the match is
// in play, it is the player's turn and the dice are rolled.
func (c *Controller) LegalMoves(ctx context.Context, id model.MatchID, player model.PlayerID) ([]model.Move, error) {
	m, err := c.storage.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	moves := rules.MatchLegalMoves(m, player)
	if moves == nil {
		moves = []model.Move{}
	}
	return moves, nil
}

// Move validates and applies one checker move, then resolves the turn
func (c *Controller) Move(ctx context.Context, id model.MatchID, player model.PlayerID, from, to int) (*MoveResult, error) {
	var result MoveResult
	m, err := c.update(ctx, "move", id, func(m *model.Match) error {
		die, err := rules.Validate(m, player, from, to)
		if err != nil {
			return err
		}

		now := c.clock.Now()
		side := m.SideOf(player)
		mv := model.Move{From: from, To: to, Die: die}

		eff := rules.Apply(&m.Board, side, mv)
		m.ConsumeDie(die)
		m.RecordMove(player, mv, now)
		m.AppendLog(model.LogKindMove, player, describeMove(side, mv), now)
		if eff.Pinned {
			m.AppendLog(model.LogKindPin, player, fmt.Sprintf("%s pinned %s at point %d", side, side.Opponent(), to), now)
		}
		if eff.Unpinned {
			m.AppendLog(model.LogKindUnpin, player, fmt.Sprintf("%s released at point %d", side.Opponent(), from), now)
		}

		out := rules.Resolve(m, side)
		switch {
		case out.GameOver:
			m.AppendLog(model.LogKindWin, player, fmt.Sprintf("%s bore off all checkers and wins", side), now)
		case out.TurnEnded:
			m.AppendLog(model.LogKindTurnEnd, player, fmt.Sprintf("%s turn ended", side), now)
		}
		m.UpdatedAt = now

		result = MoveResult{
			Move:      mv,
			Pinned:    eff.Pinned,
			Unpinned:  eff.Unpinned,
			BoreOff:   eff.BoreOff,
			TurnEnded: out.TurnEnded,
			GameOver:  out.GameOver,
			Winner:    m.Winner,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Match = m
	if result.GameOver {
		c.logger.Info("match finished",
			slog.String("match_id", string(id)),
			slog.String("winner", string(result.Winner)),
		)
	}
	return &result, nil
}

// Pass ends the player's turn when they have rolled and cannot move
func (c *Controller) Pass(ctx context.Context, id model.MatchID, player model.PlayerID) (*model.Match, error) {
	return c.update(ctx, "pass", id, func(m *model.Match) error {
		if err := rules.CheckPass(m, player); err != nil {
			return err
		}
		now := c.clock.Now()
		side := m.SideOf(player)
		rules.EndTurn(m)
		m.AppendLog(model.LogKindPass, player, fmt.Sprintf("%s has no legal moves and passes", side), now)
		m.UpdatedAt = now
		return nil
	})
}

// GetState returns the match as seen by a viewer. Non-participants get the
// same snapshot without legal moves.
func (c *Controller) GetState(ctx context.Context, id model.MatchID, viewer model.PlayerID) (*State, error) {
	m, err := c.storage.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}

	moves := rules.MatchLegalMoves(m, viewer)
	if moves == nil {
		moves = []model.Move{}
	}

	names := newNameResolver(c.storage)
	p1, p2, err := names.forMatch(ctx, m)
	if err != nil {
		return nil, err
	}

	return &State{
		Match:       m,
		Player1Name: p1,
		Player2Name: p2,
		ViewerSide:  m.SideOf(viewer),
		IsMyTurn:    m.Status == model.MatchStatusPlaying && viewer != "" && m.CurrentTurn == viewer,
		LegalMoves:  moves,
		Log:         m.LogTail(LogTailSize),
	}, nil
}

// GetMatch retrieves a match by ID
func (c *Controller) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	return c.storage.GetMatch(ctx, id)
}

// ListOpen returns matches waiting for an opponent, newest first
func (c *Controller) ListOpen(ctx context.Context) ([]*Summary, error) {
	open, err := c.storage.ListMatchesByStatus(ctx, model.MatchStatusWaiting)
	if err != nil {
		return nil, err
	}
	return c.summarize(ctx, open)
}

// ListForPlayer returns the player's unfinished matches, most recently
// played first
func (c *Controller) ListForPlayer(ctx context.Context, player model.PlayerID) ([]*Summary, error) {
	all, err := c.storage.ListMatchesForPlayer(ctx, player)
	if err != nil {
		return nil, err
	}
	active := make([]*model.Match, 0, len(all))
	for _, m := range all {
		if m.Status != model.MatchStatusFinished {
			active = append(active, m)
		}
	}
	storage.SortRecentlyUpdated(active)
	return c.summarize(ctx, active)
}

func (c *Controller) summarize(ctx context.Context, matches []*model.Match) ([]*Summary, error) {
	names := newNameResolver(c.storage)
	out := make([]*Summary, 0, len(matches))
	for _, m := range matches {
		p1, p2, err := names.forMatch(ctx, m)
		if err != nil {
			return nil, err
		}
		out = append(out, &Summary{Match: m, Player1Name: p1, Player2Name: p2})
	}
	return out, nil
}

// nameResolver looks up display names once per player. A player record that
// no longer exists (an expired guest) resolves to an empty name.
type nameResolver struct {
	storage storage.Storage
	names   map[model.PlayerID]string
}

func newNameResolver(store storage.Storage) *nameResolver {
	return &nameResolver{storage: store, names: map[model.PlayerID]string{}}
}

func (r *nameResolver) forMatch(ctx context.Context, m *model.Match) (string, string, error) {
	p1, err := r.name(ctx, m.Player1)
	if err != nil {
		return "", "", err
	}
	p2, err := r.name(ctx, m.Player2)
	if err != nil {
		return "", "", err
	}
	return p1, p2, nil
}

func (r *nameResolver) name(ctx context.Context, id model.PlayerID) (string, error) {
	if id == "" {
		return "", nil
	}
	if name, ok := r.names[id]; ok {
		return name, nil
	}
	p, err := r.storage.GetPlayer(ctx, id)
	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		r.names[id] = ""
	case err != nil:
		return "", err
	default:
		r.names[id] = p.DisplayName
	}
	return r.names[id], nil
}

// update wraps storage.UpdateMatch and logs backend failures. Rule
// violations are returned untouched and only logged at debug level.
func (c *Controller) update(ctx context.Context, op string, id model.MatchID, fn storage.MatchUpdateFunc) (*model.Match, error) {
	m, err := c.storage.UpdateMatch(ctx, id, fn)
	if err != nil {
		c.logFailure(op, id, err)
		return nil, err
	}
	return m, nil
}

func (c *Controller) logFailure(op string, id model.MatchID, err error) {
	if errors.Is(err, model.ErrStorageUnavailable) {
		c.logger.Error("storage failure",
			slog.String("op", op),
			slog.String("match_id", string(id)),
			slog.String("error", err.Error()),
		)
		return
	}
	c.logger.Debug("operation rejected",
		slog.String("op", op),
		slog.String("match_id", string(id)),
		slog.String("error", err.Error()),
	)
}

func describeMove(side model.Side, mv model.Move) string {
	if mv.To == model.BorneOff {
		return fmt.Sprintf("%s bore off from point %d using %d", side, mv.From, mv.Die)
	}
	return fmt.Sprintf("%s moved %d to %d using %d", side, mv.From, mv.To, mv.Die)
}

// Interface for dependency injection
type ControllerInterface interface {
	CreateMatch(ctx context.Context, creator model.PlayerID) (*model.Match, error)
	JoinMatch(ctx context.Context, id model.MatchID, joiner model.PlayerID) (*model.Match, error)
	Roll(ctx context.Context, id model.MatchID, player model.PlayerID) (*RollResult, error)
	LegalMoves(ctx context.Context, id model.MatchID, player model.PlayerID) ([]model.Move, error)
	Move(ctx context.Context, id model.MatchID, player model.PlayerID, from, to int) (*MoveResult, error)
	Pass(ctx context.Context, id model.MatchID, player model.PlayerID) (*model.Match, error)
	GetState(ctx context.Context, id model.MatchID, viewer model.PlayerID) (*State, error)
	GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
	ListOpen(ctx context.Context) ([]*Summary, error)
	ListForPlayer(ctx context.Context, player model.PlayerID) ([]*Summary, error)
}

var _ ControllerInterface = (*Controller)(nil)
