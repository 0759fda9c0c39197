package factory

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/plakoto/internal/model"
	"github.com/mcoot/plakoto/internal/services/bot"
	redisstorage "github.com/mcoot/plakoto/internal/storage/redis"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) guest(name string) model.PlayerID {
	session, err := s.app.AuthService.CreateGuestPlayer(s.ctx, name)
	s.Require().NoError(err)
	return session.PlayerID
}

// Test: two humans from match creation through the first full turn each
func (s *IntegrationSuite) TestHumanMatchFlow() {
	s.app.MockRandom.QueueString("MATCH0000001")
	alice := s.guest("Alice")
	bob := s.guest("Bob")

	// Step 1: Alice opens a match and it is listed as open
	m, err := s.app.MatchController.CreateMatch(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(model.MatchID("MATCH0000001"), m.ID)

	open, err := s.app.MatchController.ListOpen(s.ctx)
	s.Require().NoError(err)
	s.Len(open, 1)

	// Step 2: Bob joins; Alice wins the opening roll
	s.app.MockDice.QueueRolls(5, 2)
	m, err = s.app.MatchController.JoinMatch(s.ctx, m.ID, bob)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusPlaying, m.Status)
	s.Equal(alice, m.CurrentTurn)

	open, err = s.app.MatchController.ListOpen(s.ctx)
	s.Require().NoError(err)
	s.Empty(open)

	// Step 3: Alice rolls 3 and 1 and plays both dice
	s.app.MockDice.QueueRolls(3, 1)
	roll, err := s.app.MatchController.Roll(s.ctx, m.ID, alice)
	s.Require().NoError(err)
	s.Equal([]int{3, 1}, roll.MovesRemaining)

	res, err := s.app.MatchController.Move(s.ctx, m.ID, alice, 1, 4)
	s.Require().NoError(err)
	s.False(res.TurnEnded)
	res, err = s.app.MatchController.Move(s.ctx, m.ID, alice, 1, 2)
	s.Require().NoError(err)
	s.True(res.TurnEnded)

	// Step 4: Bob sees his turn with nothing to play until he rolls
	state, err := s.app.MatchController.GetState(s.ctx, m.ID, bob)
	s.Require().NoError(err)
	s.True(state.IsMyTurn)
	s.Equal(model.SidePlayer2, state.ViewerSide)
	s.Empty(state.LegalMoves)

	// Step 5: Bob rolls doubles and gets four moves
	s.app.MockDice.QueueRolls(6, 6)
	roll, err = s.app.MatchController.Roll(s.ctx, m.ID, bob)
	s.Require().NoError(err)
	s.True(roll.Doubles)
	s.Len(roll.MovesRemaining, 4)

	for i := 0; i < 4; i++ {
		res, err = s.app.MatchController.Move(s.ctx, m.ID, bob, 24, 18)
		s.Require().NoError(err)
		s.Equal(i == 3, res.TurnEnded)
	}

	// Step 6: Board and history reflect both turns
	final, err := s.app.MatchController.GetMatch(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Equal(alice, final.CurrentTurn)
	s.Equal(13, final.Board.Count(model.SidePlayer1, 1))
	s.Equal(4, final.Board.Count(model.SidePlayer2, 18))
	s.Len(final.Moves, 6)

	mine, err := s.app.MatchController.ListForPlayer(s.ctx, bob)
	s.Require().NoError(err)
	s.Len(mine, 1)
}

// Test: a bot that wins the opening roll plays its turn and hands back
func (s *IntegrationSuite) TestBotMatchFlow() {
	alice := s.guest("Alice")
	m, err := s.app.MatchController.CreateMatch(s.ctx, alice)
	s.Require().NoError(err)

	s.app.MockDice.QueueRolls(2, 4, 6, 5)
	botPlayer, joined, err := s.app.BotService.AddBot(s.ctx, m.ID, alice, model.BotStrategyGreedy)
	s.Require().NoError(err)
	s.Equal(botPlayer.ID, joined.CurrentTurn)

	actions, err := s.app.BotService.ProcessBotActions(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Require().NotEmpty(actions)
	s.Equal(bot.ActionRoll, actions[0].Type)
	s.Equal(bot.ActionTurnComplete, actions[len(actions)-1].Type)

	state, err := s.app.MatchController.GetState(s.ctx, m.ID, alice)
	s.Require().NoError(err)
	s.True(state.IsMyTurn)
	s.Equal(model.CheckersPerSide-2, state.Match.Board.Count(model.SidePlayer2, model.NumPoints))
}

// Test: a player stuck behind a wall rolls, cannot move and passes
func (s *IntegrationSuite) TestPassWhenBlocked() {
	alice := s.guest("Alice")
	bob := s.guest("Bob")
	m, err := s.app.MatchController.CreateMatch(s.ctx, alice)
	s.Require().NoError(err)
	s.app.MockDice.QueueRolls(5, 2)
	_, err = s.app.MatchController.JoinMatch(s.ctx, m.ID, bob)
	s.Require().NoError(err)

	// Bob stacks two checkers on each of Alice's landing points
	_, err = s.app.Storage.UpdateMatch(s.ctx, m.ID, func(mm *model.Match) error {
		mm.Board.Stack(model.SidePlayer2, model.NumPoints).Count = 11
		mm.Board.Place(model.SidePlayer2, 4, 2)
		mm.Board.Place(model.SidePlayer2, 6, 2)
		return nil
	})
	s.Require().NoError(err)

	s.app.MockDice.QueueRolls(3, 5)
	_, err = s.app.MatchController.Roll(s.ctx, m.ID, alice)
	s.Require().NoError(err)

	_, err = s.app.MatchController.Move(s.ctx, m.ID, alice, 1, 4)
	s.ErrorIs(err, model.ErrPointBlocked)

	passed, err := s.app.MatchController.Pass(s.ctx, m.ID, alice)
	s.Require().NoError(err)
	s.Equal(bob, passed.CurrentTurn)
	s.False(passed.DiceRolled)
}

func TestNewDefaultsToMemory(t *testing.T) {
	app, err := New(context.Background(), Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Close()

	if _, err := app.MatchController.ListOpen(context.Background()); err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
}

func TestNewRejectsBadStorageConfig(t *testing.T) {
	for _, cfg := range []Config{
		{StorageType: "cassandra"},
		{StorageType: StorageTypeRedis},
		{StorageType: StorageTypePostgres},
	} {
		if _, err := New(context.Background(), cfg); err == nil {
			t.Errorf("expected error for storage type %q", cfg.StorageType)
		}
	}
}

func TestNewWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mr.Addr()

	ctx := context.Background()
	app, err := New(ctx, Config{StorageType: StorageTypeRedis, RedisConfig: &redisCfg})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Close()

	session, err := app.AuthService.CreateGuestPlayer(ctx, "Alice")
	if err != nil {
		t.Fatalf("CreateGuestPlayer: %v", err)
	}
	m, err := app.MatchController.CreateMatch(ctx, session.PlayerID)
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}

	got, err := app.MatchController.GetMatch(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMatch: %v", err)
	}
	if got.Board.Count(model.SidePlayer1, 1) != model.CheckersPerSide {
		t.Errorf("expected %d checkers on point 1, got %d", model.CheckersPerSide, got.Board.Count(model.SidePlayer1, 1))
	}
}
