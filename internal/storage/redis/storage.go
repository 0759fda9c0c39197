package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/plakoto/internal/model"
	"github.com/mcoot/plakoto/internal/storage"
)

// ErrTooManyConflicts is returned when an update keeps losing the optimistic
// race for a match
var ErrTooManyConflicts = errors.New("too many concurrent updates")

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	// Apply TTL only for guest players
	var ttl time.Duration
	if player.IsGuest {
		ttl = s.cfg.GuestPlayerTTL
	}

	if err := s.client.Set(ctx, playerKey(player.ID), data, ttl).Err(); err != nil {
		return model.StorageFailure("save player", err)
	}
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, model.StorageFailure("get player", err)
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, model.StorageFailure("decode player", err)
	}
	return &player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	if err := s.client.Del(ctx, playerKey(id)).Err(); err != nil {
		return model.StorageFailure("delete player", err)
	}
	return nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	data, err := json.Marshal(rp)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, registeredPlayerKey(rp.PlayerID), data, 0)
		pipe.Set(ctx, usernameIndexKey(rp.Username), string(rp.PlayerID), 0)
		return nil
	})
	if err != nil {
		return model.StorageFailure("save registered player", err)
	}
	return nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	data, err := s.client.Get(ctx, registeredPlayerKey(playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, model.StorageFailure("get registered player", err)
	}

	var rp model.RegisteredPlayer
	if err := json.Unmarshal(data, &rp); err != nil {
		return nil, model.StorageFailure("decode registered player", err)
	}
	return &rp, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	playerIDStr, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, model.StorageFailure("get username index", err)
	}

	return s.GetRegisteredPlayer(ctx, model.PlayerID(playerIDStr))
}

// Match operations

func (s *Storage) CreateMatch(ctx context.Context, match *model.Match) error {
	data, err := json.Marshal(match)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, matchKey(match.ID), data, s.cfg.MatchTTL).Result()
	if err != nil {
		return model.StorageFailure("create match", err)
	}
	if !ok {
		return model.ErrMatchExists
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.indexMatch(ctx, pipe, match, "")
		return nil
	})
	if err != nil {
		return model.StorageFailure("index match", err)
	}
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	data, err := s.client.Get(ctx, matchKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMatchNotFound
		}
		return nil, model.StorageFailure("get match", err)
	}
	return decodeMatch(data)
}

// UpdateMatch runs fn under WATCH on the match key and commits the new
// document and index changes in one MULTI/EXEC. A concurrent writer aborts
// the EXEC and the whole read-modify-write is retried.
func (s *Storage) UpdateMatch(ctx context.Context, id model.MatchID, fn storage.MatchUpdateFunc) (*model.Match, error) {
	key := matchKey(id)

	var (
		result *model.Match
		fnErr  error
	)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}
		m := &model.Match{}
		if err := json.Unmarshal(data, m); err != nil {
			return err
		}

		prevStatus := m.Status
		if err := fn(m); err != nil {
			fnErr = err
			return err
		}

		updated, err := json.Marshal(m)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, s.cfg.MatchTTL)
			s.indexMatch(ctx, pipe, m, prevStatus)
			return nil
		})
		if err != nil {
			return err
		}
		result = m
		return nil
	}

	retries := max(s.cfg.MaxTxRetries, 1)
	for i := 0; i < retries; i++ {
		err := s.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return result, nil
		case fnErr != nil:
			return nil, fnErr
		case errors.Is(err, redis.Nil):
			return nil, model.ErrMatchNotFound
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return nil, model.StorageFailure("update match", err)
		}
	}
	return nil, model.StorageFailure("update match", ErrTooManyConflicts)
}

// indexMatch queues index maintenance for a match. prevStatus is empty for
// a new match.
func (s *Storage) indexMatch(ctx context.Context, pipe redis.Pipeliner, m *model.Match, prevStatus model.MatchStatus) {
	if prevStatus != m.Status {
		if prevStatus != "" {
			pipe.SRem(ctx, matchesByStatusKey(prevStatus), string(m.ID))
		}
		pipe.SAdd(ctx, matchesByStatusKey(m.Status), string(m.ID))
	}
	for _, p := range []model.PlayerID{m.Player1, m.Player2} {
		if p != "" {
			pipe.SAdd(ctx, matchesForPlayerKey(p), string(m.ID))
		}
	}
}

func (s *Storage) ListMatchesByStatus(ctx context.Context, status model.MatchStatus) ([]*model.Match, error) {
	return s.listFromIndex(ctx, matchesByStatusKey(status), func(m *model.Match) bool {
		return m.Status == status
	})
}

func (s *Storage) ListMatchesForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Match, error) {
	return s.listFromIndex(ctx, matchesForPlayerKey(playerID), func(m *model.Match) bool {
		return m.IsParticipant(playerID)
	})
}

func (s *Storage) listFromIndex(ctx context.Context, indexKey string, keep func(*model.Match) bool) ([]*model.Match, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, model.StorageFailure("read match index", err)
	}
	if len(ids) == 0 {
		return []*model.Match{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = matchKey(model.MatchID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, model.StorageFailure("read matches", err)
	}

	matches := make([]*model.Match, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Match may have expired
		}
		m, err := decodeMatch([]byte(str))
		if err != nil {
			return nil, err
		}
		if !keep(m) {
			continue
		}
		matches = append(matches, m)
	}

	storage.SortNewestFirst(matches)
	return matches, nil
}

func (s *Storage) DeleteMatch(ctx context.Context, id model.MatchID) error {
	m, err := s.GetMatch(ctx, id)
	if errors.Is(err, model.ErrMatchNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, matchKey(id))
		pipe.SRem(ctx, matchesByStatusKey(m.Status), string(id))
		for _, p := range []model.PlayerID{m.Player1, m.Player2} {
			if p != "" {
				pipe.SRem(ctx, matchesForPlayerKey(p), string(id))
			}
		}
		return nil
	})
	if err != nil {
		return model.StorageFailure("delete match", err)
	}
	return nil
}

func decodeMatch(data []byte) (*model.Match, error) {
	var m model.Match
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, model.StorageFailure("decode match", err)
	}
	return &m, nil
}
