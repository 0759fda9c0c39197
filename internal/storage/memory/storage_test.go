package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/plakoto/internal/model"
	"github.com/mcoot/plakoto/internal/testutil"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
	now     time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// Player tests

func (s *StorageSuite) TestSaveAndGetPlayer() {
	player := &model.Player{
		ID:          "player-1",
		DisplayName: "Alice",
		CreatedAt:   s.now,
	}

	err := s.storage.SavePlayer(s.ctx, player)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetPlayer(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(player.ID, retrieved.ID)
	s.Equal(player.DisplayName, retrieved.DisplayName)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestDeletePlayer() {
	_ = s.storage.SavePlayer(s.ctx, &model.Player{ID: "player-1", DisplayName: "Alice"})

	err := s.storage.DeletePlayer(s.ctx, "player-1")
	s.Require().NoError(err)

	_, err = s.storage.GetPlayer(s.ctx, "player-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Registered player tests

func (s *StorageSuite) TestGetRegisteredPlayerByUsername() {
	rp := &model.RegisteredPlayer{
		PlayerID:     "player-1",
		Username:     "alice",
		PasswordHash: "hash123",
	}
	s.Require().NoError(s.storage.SaveRegisteredPlayer(s.ctx, rp))

	retrieved, err := s.storage.GetRegisteredPlayerByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), retrieved.PlayerID)

	_, err = s.storage.GetRegisteredPlayerByUsername(s.ctx, "bob")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Match tests

func (s *StorageSuite) TestCreateAndGetMatch() {
	m := testutil.PlayingMatch("m1", "p1", "p2", s.now)
	s.Require().NoError(s.storage.CreateMatch(s.ctx, m))

	got, err := s.storage.GetMatch(s.ctx, "m1")
	s.Require().NoError(err)
	s.Equal(m, got)
}

func (s *StorageSuite) TestCreateMatchDuplicate() {
	m := testutil.WaitingMatch("m1", "p1", s.now)
	s.Require().NoError(s.storage.CreateMatch(s.ctx, m))
	s.ErrorIs(s.storage.CreateMatch(s.ctx, m), model.ErrMatchExists)
}

func (s *StorageSuite) TestGetMatchNotFound() {
	_, err := s.storage.GetMatch(s.ctx, "missing")
	s.ErrorIs(err, model.ErrMatchNotFound)

	_, err = s.storage.UpdateMatch(s.ctx, "missing", func(*model.Match) error { return nil })
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *StorageSuite) TestReturnedMatchIsACopy() {
	s.Require().NoError(s.storage.CreateMatch(s.ctx, testutil.PlayingMatch("m1", "p1", "p2", s.now)))

	got, _ := s.storage.GetMatch(s.ctx, "m1")
	got.Board.Place(model.SidePlayer1, 5, 1)
	got.Log = nil

	again, _ := s.storage.GetMatch(s.ctx, "m1")
	s.Zero(again.Board.Count(model.SidePlayer1, 5))
	s.Len(again.Log, 2)
}

func (s *StorageSuite) TestUpdateMatchCommits() {
	s.Require().NoError(s.storage.CreateMatch(s.ctx, testutil.PlayingMatch("m1", "p1", "p2", s.now)))

	updated, err := s.storage.UpdateMatch(s.ctx, "m1", func(m *model.Match) error {
		m.Board.Stack(model.SidePlayer1, 1).Count--
		m.Board.Place(model.SidePlayer1, 4, 1)
		m.RecordMove("p1", model.Move{From: 1, To: 4, Die: 3}, s.now)
		m.AppendLog(model.LogKindMove, "p1", "moved 1 to 4", s.now)
		return nil
	})
	s.Require().NoError(err)
	s.Equal(1, updated.Board.Count(model.SidePlayer1, 4))

	got, _ := s.storage.GetMatch(s.ctx, "m1")
	s.Equal(1, got.Board.Count(model.SidePlayer1, 4))
	s.Len(got.Moves, 1)
	s.Len(got.Log, 3)
}

func (s *StorageSuite) TestUpdateMatchErrorDiscardsChanges() {
	s.Require().NoError(s.storage.CreateMatch(s.ctx, testutil.PlayingMatch("m1", "p1", "p2", s.now)))
	boom := errors.New("boom")

	_, err := s.storage.UpdateMatch(s.ctx, "m1", func(m *model.Match) error {
		m.Board.Place(model.SidePlayer1, 4, 1)
		m.AppendLog(model.LogKindMove, "p1", "partial", s.now)
		return boom
	})
	s.ErrorIs(err, boom)

	got, _ := s.storage.GetMatch(s.ctx, "m1")
	s.Zero(got.Board.Count(model.SidePlayer1, 4))
	s.Len(got.Log, 2)
}

func (s *StorageSuite) TestUpdateMatchSerializesWriters() {
	s.Require().NoError(s.storage.CreateMatch(s.ctx, testutil.PlayingMatch("m1", "p1", "p2", s.now)))

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.storage.UpdateMatch(s.ctx, "m1", func(m *model.Match) error {
				m.AppendLog(model.LogKindRoll, "p1", "tick", s.now)
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, _ := s.storage.GetMatch(s.ctx, "m1")
	s.Len(got.Log, 2+writers)
	s.Equal(2+writers, got.Log[len(got.Log)-1].Seq)
}

func (s *StorageSuite) TestListMatches() {
	s.Require().NoError(s.storage.CreateMatch(s.ctx, testutil.WaitingMatch("old", "p1", s.now)))
	s.Require().NoError(s.storage.CreateMatch(s.ctx, testutil.WaitingMatch("new", "p2", s.now.Add(time.Minute))))
	s.Require().NoError(s.storage.CreateMatch(s.ctx, testutil.PlayingMatch("live", "p1", "p3", s.now)))

	open, err := s.storage.ListMatchesByStatus(s.ctx, model.MatchStatusWaiting)
	s.Require().NoError(err)
	s.Require().Len(open, 2)
	s.Equal(model.MatchID("new"), open[0].ID)
	s.Equal(model.MatchID("old"), open[1].ID)

	mine, err := s.storage.ListMatchesForPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	s.Len(mine, 2)

	none, err := s.storage.ListMatchesForPlayer(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *StorageSuite) TestDeleteMatch() {
	s.Require().NoError(s.storage.CreateMatch(s.ctx, testutil.WaitingMatch("m1", "p1", s.now)))
	s.Require().NoError(s.storage.DeleteMatch(s.ctx, "m1"))

	_, err := s.storage.GetMatch(s.ctx, "m1")
	s.ErrorIs(err, model.ErrMatchNotFound)
}
