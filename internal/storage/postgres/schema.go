package postgres

// schema creates every table the store needs. Statements are idempotent so
// Migrate can run on each startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS players (
		id           TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		is_guest     BOOLEAN NOT NULL DEFAULT FALSE,
		is_bot       BOOLEAN NOT NULL DEFAULT FALSE,
		bot_strategy TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS registered_players (
		player_id     TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id              TEXT PRIMARY KEY,
		player1         TEXT NOT NULL,
		player2         TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL,
		current_turn    TEXT NOT NULL DEFAULT '',
		dice1           SMALLINT NOT NULL DEFAULT 0,
		dice2           SMALLINT NOT NULL DEFAULT 0,
		dice_rolled     BOOLEAN NOT NULL DEFAULT FALSE,
		moves_remaining INTEGER[] NOT NULL DEFAULT '{}',
		winner          TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS matches_status_idx ON matches (status)`,
	`CREATE INDEX IF NOT EXISTS matches_player1_idx ON matches (player1)`,
	`CREATE INDEX IF NOT EXISTS matches_player2_idx ON matches (player2)`,
	`CREATE TABLE IF NOT EXISTS board_entries (
		match_id TEXT NOT NULL REFERENCES matches (id) ON DELETE CASCADE,
		side     SMALLINT NOT NULL,
		point    SMALLINT NOT NULL,
		count    SMALLINT NOT NULL,
		pinned   BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (match_id, side, point)
	)`,
	`CREATE TABLE IF NOT EXISTS move_history (
		match_id   TEXT NOT NULL REFERENCES matches (id) ON DELETE CASCADE,
		number     INTEGER NOT NULL,
		player_id  TEXT NOT NULL,
		from_point SMALLINT NOT NULL,
		to_point   SMALLINT NOT NULL,
		die        SMALLINT NOT NULL,
		played_at  TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (match_id, number)
	)`,
	`CREATE TABLE IF NOT EXISTS match_log (
		match_id  TEXT NOT NULL REFERENCES matches (id) ON DELETE CASCADE,
		seq       INTEGER NOT NULL,
		kind      TEXT NOT NULL,
		player_id TEXT NOT NULL DEFAULT '',
		message   TEXT NOT NULL,
		at        TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (match_id, seq)
	)`,
}
