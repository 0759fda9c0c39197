package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/plakoto/internal/model"
	"github.com/mcoot/plakoto/internal/testutil"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
	now     time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.GuestPlayerTTL = time.Hour
	cfg.MatchTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Player tests

func (s *StorageSuite) TestSaveAndGetPlayer() {
	player := &model.Player{
		ID:          "player-1",
		DisplayName: "Alice",
		IsBot:       true,
		BotStrategy: model.BotStrategyGreedy,
		CreatedAt:   s.now,
	}

	err := s.storage.SavePlayer(s.ctx, player)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetPlayer(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(player.DisplayName, retrieved.DisplayName)
	s.True(retrieved.IsBot)
	s.Equal(model.BotStrategyGreedy, retrieved.BotStrategy)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestGuestPlayerTTL() {
	guest := &model.Player{ID: "guest-1", DisplayName: "Guest", IsGuest: true}
	registered := &model.Player{ID: "reg-1", DisplayName: "Registered"}

	s.Require().NoError(s.storage.SavePlayer(s.ctx, guest))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, registered))

	s.True(s.mini.TTL(playerKey(guest.ID)) > 0, "Guest player should have TTL")
	s.Equal(time.Duration(0), s.mini.TTL(playerKey(registered.ID)), "Registered player should not have TTL")
}

func (s *StorageSuite) TestGetRegisteredPlayerByUsername() {
	rp := &model.RegisteredPlayer{PlayerID: "player-1", Username: "alice", PasswordHash: "hash"}
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
	m.Board.Stack(model.SidePlayer1, 1).Count = 14
	m.Board.Place(model.SidePlayer1, 10, 1)
	m.Board.Stack(model.SidePlayer1, 10).Pinned = true
	m.Board.Place(model.SidePlayer2, 10, 1)
	s.Require().NoError(s.storage.CreateMatch(s.ctx, m))

	got, err := s.storage.GetMatch(s.ctx, "m1")
	s.Require().NoError(err)
	s.Equal(m.Board, got.Board)
	s.Equal(model.MatchStatusPlaying, got.Status)
	s.Equal(model.PlayerID("p1"), got.CurrentTurn)
	s.Len(got.Log, 2)

	s.True(s.mini.TTL(matchKey("m1")) > 0, "Match should have TTL")
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

func (s *StorageSuite) TestUpdateMatchMovesStatusIndex() {
	s.Require().NoError(s.storage.CreateMatch(s.ctx, testutil.WaitingMatch("m1", "p1", s.now)))

	updated, err := s.storage.UpdateMatch(s.ctx, "m1", func(m *model.Match) error {
		m.Player2 = "p2"
		m.Status = model.MatchStatusPlaying
		m.CurrentTurn = "p2"
		return nil
	})
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p2"), updated.Player2)

	waiting, err := s.storage.ListMatchesByStatus(s.ctx, model.MatchStatusWaiting)
	s.Require().NoError(err)
	s.Empty(waiting)

	playing, err := s.storage.ListMatchesByStatus(s.ctx, model.MatchStatusPlaying)
	s.Require().NoError(err)
	s.Require().Len(playing, 1)
	s.Equal(model.MatchID("m1"), playing[0].ID)

	forP2, err := s.storage.ListMatchesForPlayer(s.ctx, "p2")
	s.Require().NoError(err)
	s.Len(forP2, 1)
}

func (s *StorageSuite) TestUpdateMatchErrorDiscardsChanges() {
	s.Require().NoError(s.storage.CreateMatch(s.ctx, testutil.PlayingMatch("m1", "p1", "p2", s.now)))

	_, err := s.storage.UpdateMatch(s.ctx, "m1", func(m *model.Match) error {
		m.Board.Place(model.SidePlayer1, 4, 1)
		return model.ErrNotYourTurn
	})
	s.ErrorIs(err, model.ErrNotYourTurn)
	s.False(errors.Is(err, model.ErrStorageUnavailable))

	got, _ := s.storage.GetMatch(s.ctx, "m1")
	s.Zero(got.Board.Count(model.SidePlayer1, 4))
}

func (s *StorageSuite) TestUpdateMatchRetriesOnConflict() {
	s.Require().NoError(s.storage.CreateMatch(s.ctx, testutil.PlayingMatch("m1", "p1", "p2", s.now)))

	attempts := 0
	updated, err := s.storage.UpdateMatch(s.ctx, "m1", func(m *model.Match) error {
		attempts++
		if attempts == 1 {
			_, err := s.storage.UpdateMatch(s.ctx, "m1", func(inner *model.Match) error {
				inner.AppendLog(model.LogKindRoll, "p1", "interleaved", s.now)
				return nil
			})
			s.Require().NoError(err)
		}
		m.AppendLog(model.LogKindMove, "p1", "outer", s.now)
		return nil
	})
	s.Require().NoError(err)
	s.Equal(2, attempts)
	s.Require().Len(updated.Log, 4)
	s.Equal("interleaved", updated.Log[2].Message)
	s.Equal("outer", updated.Log[3].Message)
}

func (s *StorageSuite) TestUpdateMatchGivesUpAfterRetries() {
	s.storage.cfg.MaxTxRetries = 2
	s.Require().NoError(s.storage.CreateMatch(s.ctx, testutil.PlayingMatch("m1", "p1", "p2", s.now)))

	_, err := s.storage.UpdateMatch(s.ctx, "m1", func(m *model.Match) error {
		_, err := s.storage.UpdateMatch(s.ctx, "m1", func(inner *model.Match) error {
			inner.AppendLog(model.LogKindRoll, "p1", "interleaved", s.now)
			return nil
		})
		s.Require().NoError(err)
		return nil
	})
	s.ErrorIs(err, model.ErrStorageUnavailable)
	s.ErrorIs(err, ErrTooManyConflicts)
}

func (s *StorageSuite) TestListMatchesNewestFirst() {
	s.Require().NoError(s.storage.CreateMatch(s.ctx, testutil.WaitingMatch("old", "p1", s.now)))
	s.Require().NoError(s.storage.CreateMatch(s.ctx, testutil.WaitingMatch("new", "p2", s.now.Add(time.Minute))))

	open, err := s.storage.ListMatchesByStatus(s.ctx, model.MatchStatusWaiting)
	s.Require().NoError(err)
	s.Require().Len(open, 2)
	s.Equal(model.MatchID("new"), open[0].ID)
	s.Equal(model.MatchID("old"), open[1].ID)
}

func (s *StorageSuite) TestListSkipsExpiredMatches() {
	s.Require().NoError(s.storage.CreateMatch(s.ctx, testutil.WaitingMatch("m1", "p1", s.now)))
	s.mini.FastForward(2 * time.Hour)

	open, err := s.storage.ListMatchesByStatus(s.ctx, model.MatchStatusWaiting)
	s.Require().NoError(err)
	s.Empty(open)
}

func (s *StorageSuite) TestDeleteMatch() {
	s.Require().NoError(s.storage.CreateMatch(s.ctx, testutil.WaitingMatch("m1", "p1", s.now)))
	s.Require().NoError(s.storage.DeleteMatch(s.ctx, "m1"))

	_, err := s.storage.GetMatch(s.ctx, "m1")
	s.ErrorIs(err, model.ErrMatchNotFound)

	mine, err := s.storage.ListMatchesForPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	s.Empty(mine)

	s.NoError(s.storage.DeleteMatch(s.ctx, "m1"))
}

func (s *StorageSuite) TestBackendFailureIsStorageUnavailable() {
	s.mini.Close()

	_, err := s.storage.GetMatch(s.ctx, "m1")
	s.ErrorIs(err, model.ErrStorageUnavailable)
}

func (s *StorageSuite) TestCorruptDocumentsAreStorageUnavailable() {
	s.Require().NoError(s.mini.Set(matchKey("bad"), "{not json"))
	s.Require().NoError(s.mini.Set(playerKey("p-bad"), "{not json"))
	s.Require().NoError(s.mini.Set(registeredPlayerKey("p-bad"), "{not json"))
	s.Require().NoError(s.mini.Set(usernameIndexKey("bad"), "p-bad"))
	_, err := s.mini.SAdd(matchesByStatusKey(model.MatchStatusWaiting), "bad")
	s.Require().NoError(err)

	_, err = s.storage.GetMatch(s.ctx, "bad")
	s.ErrorIs(err, model.ErrStorageUnavailable)

	_, err = s.storage.UpdateMatch(s.ctx, "bad", func(*model.Match) error { return nil })
	s.ErrorIs(err, model.ErrStorageUnavailable)

	_, err = s.storage.ListMatchesByStatus(s.ctx, model.MatchStatusWaiting)
	s.ErrorIs(err, model.ErrStorageUnavailable)

	_, err = s.storage.GetPlayer(s.ctx, "p-bad")
	s.ErrorIs(err, model.ErrStorageUnavailable)

	_, err = s.storage.GetRegisteredPlayerByUsername(s.ctx, "bad")
	s.ErrorIs(err, model.ErrStorageUnavailable)
}
