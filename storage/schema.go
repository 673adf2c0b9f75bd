package storage

// Schema creates the finished games archive
const Schema = `
CREATE TABLE IF NOT EXISTS games (
	game_id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	config_name TEXT NOT NULL,
	winner TEXT NOT NULL CHECK (winner IN ('dark', 'light')),
	turns INTEGER NOT NULL,
	dark_remaining INTEGER NOT NULL,
	light_remaining INTEGER NOT NULL,
	final_position TEXT NOT NULL,
	finished_at_utc DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_games_finished ON games(finished_at_utc);
CREATE INDEX IF NOT EXISTS idx_games_session ON games(session_id);
`
