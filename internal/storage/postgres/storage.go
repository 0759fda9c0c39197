// Package postgres stores players and matches in PostgreSQL. A match is
// spread over the matches, board_entries, move_history and match_log
// tables; UpdateMatch rewrites them inside one transaction holding a row
// lock on the match.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/mcoot/plakoto/internal/model"
	"github.com/mcoot/plakoto/internal/storage"
)

const uniqueViolation = "23505"

// Storage is a PostgreSQL-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens a connection pool, waits for the database to answer and
// applies the schema
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Storage, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	attempts := max(cfg.ConnectAttempts, 1)
	for i := 1; ; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		if i >= attempts {
			_ = db.Close()
			return nil, fmt.Errorf("connect to postgres after %d attempts: %w", attempts, err)
		}
		logger.Warn("postgres not ready, retrying",
			slog.Int("attempt", i),
			slog.Int("max_attempts", attempts),
			slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(cfg.ConnectBackoff):
		}
	}

	s := NewWithDB(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing pool (for testing)
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Migrate creates any missing tables and indexes
func (s *Storage) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close closes the connection pool
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, display_name, is_guest, is_bot, bot_strategy, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			is_guest = EXCLUDED.is_guest,
			is_bot = EXCLUDED.is_bot,
			bot_strategy = EXCLUDED.bot_strategy`,
		player.ID, player.DisplayName, player.IsGuest, player.IsBot, player.BotStrategy, player.CreatedAt)
	if err != nil {
		return model.StorageFailure("save player", err)
	}
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var p model.Player
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, is_guest, is_bot, bot_strategy, created_at
		FROM players WHERE id = $1`, id).
		Scan(&p.ID, &p.DisplayName, &p.IsGuest, &p.IsBot, &p.BotStrategy, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPlayerNotFound
	}
	if err != nil {
		return nil, model.StorageFailure("get player", err)
	}
	return &p, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id); err != nil {
		return model.StorageFailure("delete player", err)
	}
	return nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registered_players (player_id, username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (player_id) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			updated_at = EXCLUDED.updated_at`,
		rp.PlayerID, rp.Username, rp.PasswordHash, rp.CreatedAt, rp.UpdatedAt)
	if err != nil {
		return model.StorageFailure("save registered player", err)
	}
	return nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	return s.getRegistered(ctx, `WHERE player_id = $1`, playerID)
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	return s.getRegistered(ctx, `WHERE username = $1`, username)
}

func (s *Storage) getRegistered(ctx context.Context, where string, arg any) (*model.RegisteredPlayer, error) {
	var rp model.RegisteredPlayer
	err := s.db.QueryRowContext(ctx, `
		SELECT player_id, username, password_hash, created_at, updated_at
		FROM registered_players `+where, arg).
		Scan(&rp.PlayerID, &rp.Username, &rp.PasswordHash, &rp.CreatedAt, &rp.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPlayerNotFound
	}
	if err != nil {
		return nil, model.StorageFailure("get registered player", err)
	}
	return &rp, nil
}

// Match operations

func (s *Storage) CreateMatch(ctx context.Context, match *model.Match) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO matches (id, player1, player2, status, current_turn, dice1, dice2,
				dice_rolled, moves_remaining, winner, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			match.ID, match.Player1, match.Player2, match.Status, match.CurrentTurn,
			match.Dice1, match.Dice2, match.DiceRolled, pq.Array(toInt64s(match.MovesRemaining)),
			match.Winner, match.CreatedAt, match.UpdatedAt)
		if err != nil {
			return err
		}
		return writeChildren(ctx, tx, match, 0, 0)
	})

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return model.ErrMatchExists
	}
	if err != nil {
		return model.StorageFailure("create match", err)
	}
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	m, err := loadMatch(ctx, s.db, id, false)
	if err != nil {
		return nil, classify("get match", err)
	}
	return m, nil
}

// UpdateMatch locks the match row with SELECT ... FOR UPDATE, so a second
// writer blocks until the first commits and then sees its result
func (s *Storage) UpdateMatch(ctx context.Context, id model.MatchID, fn storage.MatchUpdateFunc) (*model.Match, error) {
	var (
		result *model.Match
		fnErr  error
	)

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		m, err := loadMatch(ctx, tx, id, true)
		if err != nil {
			return err
		}

		prevMoves := len(m.Moves)
		prevLog := len(m.Log)
		if err := fn(m); err != nil {
			fnErr = err
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE matches SET player2 = $2, status = $3, current_turn = $4, dice1 = $5, dice2 = $6,
				dice_rolled = $7, moves_remaining = $8, winner = $9, updated_at = $10
			WHERE id = $1`,
			m.ID, m.Player2, m.Status, m.CurrentTurn, m.Dice1, m.Dice2,
			m.DiceRolled, pq.Array(toInt64s(m.MovesRemaining)), m.Winner, m.UpdatedAt)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM board_entries WHERE match_id = $1`, m.ID); err != nil {
			return err
		}
		if err := writeChildren(ctx, tx, m, prevMoves, prevLog); err != nil {
			return err
		}
		result = m
		return nil
	})
	if fnErr != nil {
		return nil, fnErr
	}
	if err != nil {
		return nil, classify("update match", err)
	}
	return result, nil
}

func (s *Storage) ListMatchesByStatus(ctx context.Context, status model.MatchStatus) ([]*model.Match, error) {
	return s.listMatches(ctx, `WHERE status = $1`, status)
}

func (s *Storage) ListMatchesForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Match, error) {
	return s.listMatches(ctx, `WHERE player1 = $1 OR player2 = $1`, playerID)
}

func (s *Storage) listMatches(ctx context.Context, where string, arg any) ([]*model.Match, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM matches `+where, arg)
	if err != nil {
		return nil, model.StorageFailure("list matches", err)
	}
	var ids []model.MatchID
	for rows.Next() {
		var id model.MatchID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, model.StorageFailure("list matches", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, model.StorageFailure("list matches", err)
	}

	matches := make([]*model.Match, 0, len(ids))
	for _, id := range ids {
		m, err := loadMatch(ctx, s.db, id, false)
		if errors.Is(err, sql.ErrNoRows) {
			continue // Deleted since the id scan
		}
		if err != nil {
			return nil, model.StorageFailure("list matches", err)
		}
		matches = append(matches, m)
	}
	storage.SortNewestFirst(matches)
	return matches, nil
}

func (s *Storage) DeleteMatch(ctx context.Context, id model.MatchID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id); err != nil {
		return model.StorageFailure("delete match", err)
	}
	return nil
}

// inTx runs fn in a transaction, committing only if it returns nil
func (s *Storage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func loadMatch(ctx context.Context, q queryer, id model.MatchID, forUpdate bool) (*model.Match, error) {
	query := `
		SELECT id, player1, player2, status, current_turn, dice1, dice2, dice_rolled,
			moves_remaining, winner, created_at, updated_at
		FROM matches WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		m         model.Match
		remaining []int64
	)
	err := q.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.Player1, &m.Player2, &m.Status, &m.CurrentTurn, &m.Dice1, &m.Dice2, &m.DiceRolled,
		pq.Array(&remaining), &m.Winner, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.MovesRemaining = fromInt64s(remaining)

	if err := loadBoard(ctx, q, &m); err != nil {
		return nil, err
	}
	if err := loadMoves(ctx, q, &m); err != nil {
		return nil, err
	}
	if err := loadLog(ctx, q, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func loadBoard(ctx context.Context, q queryer, m *model.Match) error {
	rows, err := q.QueryContext(ctx, `
		SELECT side, point, count, pinned FROM board_entries WHERE match_id = $1`, m.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var entries []model.BoardEntry
	for rows.Next() {
		var e model.BoardEntry
		if err := rows.Scan(&e.Side, &e.Point, &e.Count, &e.Pinned); err != nil {
			return err
		}
		entries = append(entries, e)
	}
	m.Board = model.BoardFromEntries(entries)
	return rows.Err()
}

func loadMoves(ctx context.Context, q queryer, m *model.Match) error {
	rows, err := q.QueryContext(ctx, `
		SELECT number, player_id, from_point, to_point, die, played_at
		FROM move_history WHERE match_id = $1 ORDER BY number`, m.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		rec := model.MoveRecord{MatchID: m.ID}
		if err := rows.Scan(&rec.Number, &rec.PlayerID, &rec.From, &rec.To, &rec.Die, &rec.PlayedAt); err != nil {
			return err
		}
		m.Moves = append(m.Moves, rec)
	}
	return rows.Err()
}

func loadLog(ctx context.Context, q queryer, m *model.Match) error {
	rows, err := q.QueryContext(ctx, `
		SELECT seq, kind, player_id, message, at
		FROM match_log WHERE match_id = $1 ORDER BY seq`, m.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e model.LogEntry
		if err := rows.Scan(&e.Seq, &e.Kind, &e.PlayerID, &e.Message, &e.At); err != nil {
			return err
		}
		m.Log = append(m.Log, e)
	}
	return rows.Err()
}

// writeChildren inserts the board and any move or log rows appended after
// the first skipMoves and skipLog entries. History rows are never rewritten.
func writeChildren(ctx context.Context, tx *sql.Tx, m *model.Match, skipMoves, skipLog int) error {
	for _, e := range m.Board.Entries() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO board_entries (match_id, side, point, count, pinned)
			VALUES ($1, $2, $3, $4, $5)`,
			m.ID, e.Side, e.Point, e.Count, e.Pinned)
		if err != nil {
			return err
		}
	}

	for _, rec := range m.Moves[min(skipMoves, len(m.Moves)):] {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO move_history (match_id, number, player_id, from_point, to_point, die, played_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			m.ID, rec.Number, rec.PlayerID, rec.From, rec.To, rec.Die, rec.PlayedAt)
		if err != nil {
			return err
		}
	}

	for _, e := range m.Log[min(skipLog, len(m.Log)):] {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO match_log (match_id, seq, kind, player_id, message, at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			m.ID, e.Seq, e.Kind, e.PlayerID, e.Message, e.At)
		if err != nil {
			return err
		}
	}
	return nil
}

func classify(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrMatchNotFound
	}
	return model.StorageFailure(op, err)
}

func toInt64s(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

func fromInt64s(in []int64) []int {
	if len(in) == 0 {
		return nil
	}
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
