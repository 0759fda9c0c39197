package match

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/plakoto/internal/dependencies/mocks"
	"github.com/mcoot/plakoto/internal/model"
	"github.com/mcoot/plakoto/internal/storage/memory"
	"github.com/mcoot/plakoto/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	dice       *mocks.MockDice
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.dice = mocks.NewMockDice()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.controller = NewController(s.storage, s.dice, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

// startMatch creates a match between alice and bob with alice to move first
func (s *ControllerSuite) startMatch() model.MatchID {
	s.random.QueueString("MATCH0000001")
	m, err := s.controller.CreateMatch(s.ctx, "alice")
	s.Require().NoError(err)

	s.dice.QueueRolls(5, 2)
	_, err = s.controller.JoinMatch(s.ctx, m.ID, "bob")
	s.Require().NoError(err)
	return m.ID
}

// arrange rewrites a stored match directly, bypassing the rules
func (s *ControllerSuite) arrange(id model.MatchID, fn func(m *model.Match)) {
	_, err := s.storage.UpdateMatch(s.ctx, id, func(m *model.Match) error {
		fn(m)
		return nil
	})
	s.Require().NoError(err)
}

func (s *ControllerSuite) stored(id model.MatchID) *model.Match {
	m, err := s.storage.GetMatch(s.ctx, id)
	s.Require().NoError(err)
	return m
}

// CreateMatch tests

func (s *ControllerSuite) TestCreateMatch() {
	s.random.QueueString("MATCH0000001")

	m, err := s.controller.CreateMatch(s.ctx, "alice")
	s.Require().NoError(err)

	s.Equal(model.MatchID("MATCH0000001"), m.ID)
	s.Equal(model.MatchStatusWaiting, m.Status)
	s.Equal(model.PlayerID("alice"), m.Player1)
	s.Empty(m.Player2)
	s.Equal(15, m.Board.Count(model.SidePlayer1, 1))
	s.Require().Len(m.Log, 1)
	s.Equal(model.LogKindCreated, m.Log[0].Kind)
}

func (s *ControllerSuite) TestCreateMatchRetriesOnIDCollision() {
	s.random.QueueString("DUPLICATE001", "DUPLICATE001", "FRESH0000001")

	_, err := s.controller.CreateMatch(s.ctx, "alice")
	s.Require().NoError(err)

	m, err := s.controller.CreateMatch(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(model.MatchID("FRESH0000001"), m.ID)
}

func (s *ControllerSuite) TestLegalMovesEmptyBeforeJoin() {
	m, err := s.controller.CreateMatch(s.ctx, "alice")
	s.Require().NoError(err)

	moves, err := s.controller.LegalMoves(s.ctx, m.ID, "alice")
	s.Require().NoError(err)
	s.Empty(moves)
}

// JoinMatch tests

func (s *ControllerSuite) TestJoinMatchSetsUpBoardAndFirstTurn() {
	m, err := s.controller.CreateMatch(s.ctx, "alice")
	s.Require().NoError(err)

	s.dice.QueueRolls(3, 3, 2, 6)
	joined, err := s.controller.JoinMatch(s.ctx, m.ID, "bob")
	s.Require().NoError(err)

	s.Equal(model.MatchStatusPlaying, joined.Status)
	s.Equal(model.PlayerID("bob"), joined.Player2)
	s.Equal(model.PlayerID("bob"), joined.CurrentTurn)
	s.Equal(15, joined.Board.Count(model.SidePlayer1, 1))
	s.Equal(15, joined.Board.Count(model.SidePlayer2, 24))
	s.False(joined.DiceRolled)
	s.Empty(joined.MovesRemaining)
	s.Zero(s.dice.Remaining())

	last := joined.Log[len(joined.Log)-1]
	s.Equal(model.LogKindFirstTurn, last.Kind)
	s.Contains(last.Message, "player2 goes first")
}

func (s *ControllerSuite) TestJoinOwnMatchFails() {
	m, err := s.controller.CreateMatch(s.ctx, "alice")
	s.Require().NoError(err)

	_, err = s.controller.JoinMatch(s.ctx, m.ID, "alice")
	s.ErrorIs(err, model.ErrCannotJoinOwn)
	s.Equal(model.MatchStatusWaiting, s.stored(m.ID).Status)
}

func (s *ControllerSuite) TestJoinStartedMatchFails() {
	id := s.startMatch()

	_, err := s.controller.JoinMatch(s.ctx, id, "carol")
	s.ErrorIs(err, model.ErrMatchNotWaiting)
}

func (s *ControllerSuite) TestJoinMissingMatch() {
	_, err := s.controller.JoinMatch(s.ctx, "NOPE", "bob")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

// Roll tests

func (s *ControllerSuite) TestRollNonDouble() {
	id := s.startMatch()
	s.dice.QueueRolls(3, 5)

	res, err := s.controller.Roll(s.ctx, id, "alice")
	s.Require().NoError(err)
	s.Equal(3, res.Die1)
	s.Equal(5, res.Die2)
	s.False(res.Doubles)
	s.Equal([]int{3, 5}, res.MovesRemaining)

	m := s.stored(id)
	s.True(m.DiceRolled)
	s.Equal(model.LogKindRoll, m.Log[len(m.Log)-1].Kind)
}

func (s *ControllerSuite) TestRollDoubles() {
	id := s.startMatch()
	s.dice.QueueRolls(4, 4)

	res, err := s.controller.Roll(s.ctx, id, "alice")
	s.Require().NoError(err)
	s.True(res.Doubles)
	s.Equal([]int{4, 4, 4, 4}, res.MovesRemaining)
}

func (s *ControllerSuite) TestRollRejections() {
	id := s.startMatch()

	_, err := s.controller.Roll(s.ctx, id, "bob")
	s.ErrorIs(err, model.ErrNotYourTurn)

	s.dice.QueueRolls(1, 2)
	_, err = s.controller.Roll(s.ctx, id, "alice")
	s.Require().NoError(err)

	before := s.stored(id)
	_, err = s.controller.Roll(s.ctx, id, "alice")
	s.ErrorIs(err, model.ErrAlreadyRolled)
	s.Equal(before, s.stored(id))
}

func (s *ControllerSuite) TestRollBeforeJoin() {
	m, err := s.controller.CreateMatch(s.ctx, "alice")
	s.Require().NoError(err)

	_, err = s.controller.Roll(s.ctx, m.ID, "alice")
	s.ErrorIs(err, model.ErrMatchNotPlaying)
}

// Move tests

func (s *ControllerSuite) TestMoveUsesMatchingDie() {
	id := s.startMatch()
	s.dice.QueueRolls(3, 5)
	_, err := s.controller.Roll(s.ctx, id, "alice")
	s.Require().NoError(err)

	res, err := s.controller.Move(s.ctx, id, "alice", 1, 4)
	s.Require().NoError(err)
	s.Equal(model.Move{From: 1, To: 4, Die: 3}, res.Move)
	s.False(res.TurnEnded)

	m := s.stored(id)
	s.Equal(14, m.Board.Count(model.SidePlayer1, 1))
	s.Equal(1, m.Board.Count(model.SidePlayer1, 4))
	s.Equal([]int{5}, m.MovesRemaining)
	s.Require().Len(m.Moves, 1)
	s.Equal(1, m.Moves[0].Number)
}

func (s *ControllerSuite) TestMoveEndsTurnWhenDiceUsed() {
	id := s.startMatch()
	s.dice.QueueRolls(3, 5)
	_, err := s.controller.Roll(s.ctx, id, "alice")
	s.Require().NoError(err)

	_, err = s.controller.Move(s.ctx, id, "alice", 1, 4)
	s.Require().NoError(err)
	res, err := s.controller.Move(s.ctx, id, "alice", 4, 9)
	s.Require().NoError(err)
	s.True(res.TurnEnded)

	m := s.stored(id)
	s.Equal(model.PlayerID("bob"), m.CurrentTurn)
	s.False(m.DiceRolled)
	s.Equal(2, m.Moves[1].Number)
	s.Equal(model.LogKindTurnEnd, m.Log[len(m.Log)-1].Kind)
}

func (s *ControllerSuite) TestRejectedMoveLeavesMatchUnchanged() {
	id := s.startMatch()
	s.dice.QueueRolls(3, 5)
	_, err := s.controller.Roll(s.ctx, id, "alice")
	s.Require().NoError(err)
	before := s.stored(id)

	cases := []struct {
		player   model.PlayerID
		from, to int
		err      error
	}{
		{"bob", 24, 21, model.ErrNotYourTurn},
		{"alice", 2, 5, model.ErrNoCheckers},
		{"alice", 1, 1, model.ErrWrongDirection},
		{"alice", 1, 5, model.ErrNoValidDie},
		{"alice", 1, model.BorneOff, model.ErrNoValidDie},
	}
	for _, tc := range cases {
		_, err := s.controller.Move(s.ctx, id, tc.player, tc.from, tc.to)
		s.ErrorIs(err, tc.err, "move %d->%d by %s", tc.from, tc.to, tc.player)
		s.True(model.IsRuleViolation(err))
	}

	s.Equal(before, s.stored(id))
}

func (s *ControllerSuite) TestMoveBeforeRoll() {
	id := s.startMatch()
	_, err := s.controller.Move(s.ctx, id, "alice", 1, 4)
	s.ErrorIs(err, model.ErrMustRollFirst)
}

func (s *ControllerSuite) TestPinAndRelease() {
	id := s.startMatch()
	s.arrange(id, func(m *model.Match) {
		m.Board = model.NewBoard()
		m.Board.Place(model.SidePlayer1, 1, 14)
		m.Board.Place(model.SidePlayer1, 10, 1)
		m.Board.Place(model.SidePlayer2, 24, 14)
		m.Board.Place(model.SidePlayer2, 13, 1)
		m.CurrentTurn = "bob"
	})

	s.dice.QueueRolls(3, 6)
	_, err := s.controller.Roll(s.ctx, id, "bob")
	s.Require().NoError(err)

	res, err := s.controller.Move(s.ctx, id, "bob", 13, 10)
	s.Require().NoError(err)
	s.True(res.Pinned)
	s.True(s.stored(id).Board.IsPinned(model.SidePlayer1, 10))

	res, err = s.controller.Move(s.ctx, id, "bob", 10, 4)
	s.Require().NoError(err)
	s.True(res.Unpinned)
	s.True(res.TurnEnded)

	m := s.stored(id)
	s.False(m.Board.IsPinned(model.SidePlayer1, 10))
	kinds := make([]model.LogKind, 0, len(m.Log))
	for _, e := range m.Log {
		kinds = append(kinds, e.Kind)
	}
	s.Contains(kinds, model.LogKindPin)
	s.Contains(kinds, model.LogKindUnpin)
}

func (s *ControllerSuite) TestWinFinishesMatch() {
	id := s.startMatch()
	s.arrange(id, func(m *model.Match) {
		m.Board = model.NewBoard()
		m.Board.Place(model.SidePlayer1, model.BorneOff, 14)
		m.Board.Place(model.SidePlayer1, 24, 1)
		m.Board.Place(model.SidePlayer2, 24, 15)
	})

	s.dice.QueueRolls(1, 2)
	_, err := s.controller.Roll(s.ctx, id, "alice")
	s.Require().NoError(err)

	res, err := s.controller.Move(s.ctx, id, "alice", 24, model.BorneOff)
	s.Require().NoError(err)
	s.True(res.GameOver)
	s.True(res.BoreOff)
	s.Equal(model.PlayerID("alice"), res.Winner)

	m := s.stored(id)
	s.Equal(model.MatchStatusFinished, m.Status)
	s.Equal(model.LogKindWin, m.Log[len(m.Log)-1].Kind)

	_, err = s.controller.Move(s.ctx, id, "alice", 24, model.BorneOff)
	s.ErrorIs(err, model.ErrMatchFinished)
	_, err = s.controller.Roll(s.ctx, id, "bob")
	s.ErrorIs(err, model.ErrMatchFinished)
}

func (s *ControllerSuite) TestConcurrentMovesApplyOnce() {
	id := s.startMatch()
	s.dice.QueueRolls(3, 5)
	_, err := s.controller.Roll(s.ctx, id, "alice")
	s.Require().NoError(err)

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.controller.Move(s.ctx, id, "alice", 1, 4); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	m := s.stored(id)
	s.Equal(1, m.Board.Count(model.SidePlayer1, 4))
	s.Equal([]int{5}, m.MovesRemaining)
}

// Pass tests

func (s *ControllerSuite) TestPassRejectedWithMovesAvailable() {
	id := s.startMatch()
	s.dice.QueueRolls(3, 5)
	_, err := s.controller.Roll(s.ctx, id, "alice")
	s.Require().NoError(err)

	_, err = s.controller.Pass(s.ctx, id, "alice")
	s.ErrorIs(err, model.ErrValidMovesAvailable)
}

func (s *ControllerSuite) TestPassWhenBlocked() {
	id := s.startMatch()
	s.arrange(id, func(m *model.Match) {
		m.Board.Stack(model.SidePlayer2, 24).Count = 11
		m.Board.Place(model.SidePlayer2, 4, 2)
		m.Board.Place(model.SidePlayer2, 6, 2)
	})

	s.dice.QueueRolls(3, 5)
	_, err := s.controller.Roll(s.ctx, id, "alice")
	s.Require().NoError(err)

	// Rolling into a blocked position does not end the turn by itself
	s.Equal(model.PlayerID("alice"), s.stored(id).CurrentTurn)

	moves, err := s.controller.LegalMoves(s.ctx, id, "alice")
	s.Require().NoError(err)
	s.Empty(moves)

	m, err := s.controller.Pass(s.ctx, id, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("bob"), m.CurrentTurn)
	s.False(m.DiceRolled)
	s.Equal(model.LogKindPass, m.Log[len(m.Log)-1].Kind)
}

func (s *ControllerSuite) TestPassBeforeRoll() {
	id := s.startMatch()
	_, err := s.controller.Pass(s.ctx, id, "alice")
	s.ErrorIs(err, model.ErrMustRollFirst)
}

// State and listing tests

func (s *ControllerSuite) TestGetState() {
	id := s.startMatch()
	s.dice.QueueRolls(3, 5)
	_, err := s.controller.Roll(s.ctx, id, "alice")
	s.Require().NoError(err)

	st, err := s.controller.GetState(s.ctx, id, "alice")
	s.Require().NoError(err)
	s.True(st.IsMyTurn)
	s.Equal(model.SidePlayer1, st.ViewerSide)
	s.Len(st.LegalMoves, 2)

	st, err = s.controller.GetState(s.ctx, id, "bob")
	s.Require().NoError(err)
	s.False(st.IsMyTurn)
	s.Empty(st.LegalMoves)

	st, err = s.controller.GetState(s.ctx, id, "stranger")
	s.Require().NoError(err)
	s.Equal(model.SideNone, st.ViewerSide)
	s.False(st.IsMyTurn)
}

func (s *ControllerSuite) TestGetStateLogTail() {
	id := s.startMatch()
	s.arrange(id, func(m *model.Match) {
		for i := 0; i < 30; i++ {
			m.AppendLog(model.LogKindRoll, "alice", "filler", m.CreatedAt)
		}
	})

	st, err := s.controller.GetState(s.ctx, id, "alice")
	s.Require().NoError(err)
	s.Len(st.Log, LogTailSize)
	s.Equal(st.Match.Log[len(st.Match.Log)-1], st.Log[LogTailSize-1])
}

func (s *ControllerSuite) TestListings() {
	s.random.QueueString("OPEN00000001")
	_, err := s.controller.CreateMatch(s.ctx, "carol")
	s.Require().NoError(err)

	id := s.startMatch()
	s.arrange(id, func(m *model.Match) { m.Status = model.MatchStatusFinished })

	s.random.QueueString("LIVE00000001")
	live, err := s.controller.CreateMatch(s.ctx, "alice")
	s.Require().NoError(err)

	open, err := s.controller.ListOpen(s.ctx)
	s.Require().NoError(err)
	s.Len(open, 2)

	mine, err := s.controller.ListForPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(live.ID, mine[0].Match.ID)
}

func (s *ControllerSuite) TestListingsResolveNamesAndOrderByActivity() {
	for id, name := range map[model.PlayerID]string{"alice": "Alice", "bob": "Bob", "carol": "Carol"} {
		s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{ID: id, DisplayName: name, CreatedAt: s.clock.Now()}))
	}

	// Older match, played more recently
	first := s.startMatch()
	s.clock.Advance(time.Minute)
	s.random.QueueString("MATCH0000002")
	second, err := s.controller.CreateMatch(s.ctx, "alice")
	s.Require().NoError(err)
	s.clock.Advance(time.Minute)
	s.dice.QueueRolls(3, 1)
	_, err = s.controller.Roll(s.ctx, first, "alice")
	s.Require().NoError(err)

	mine, err := s.controller.ListForPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(mine, 2)
	s.Equal(first, mine[0].Match.ID)
	s.Equal("Alice", mine[0].Player1Name)
	s.Equal("Bob", mine[0].Player2Name)
	s.Equal(second.ID, mine[1].Match.ID)
	s.Empty(mine[1].Player2Name)

	open, err := s.controller.ListOpen(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(open, 1)
	s.Equal("Alice", open[0].Player1Name)

	st, err := s.controller.GetState(s.ctx, first, "bob")
	s.Require().NoError(err)
	s.Equal("Alice", st.Player1Name)
	s.Equal("Bob", st.Player2Name)
}

func (s *ControllerSuite) TestListingsToleratesMissingPlayer() {
	s.random.QueueString("MATCH0000001")
	_, err := s.controller.CreateMatch(s.ctx, "ghost")
	s.Require().NoError(err)

	open, err := s.controller.ListOpen(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(open, 1)
	s.Empty(open[0].Player1Name)
}
