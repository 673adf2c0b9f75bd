package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/checkers-game/game/engine"
	"github.com/wricardo/checkers-game/game/service"
)

// rowSeparator joins the eight layout rows of the final position
const rowSeparator = "/"

// RecordGame asynchronously archives a finished game
func (s *Store) RecordGame(ctx context.Context, record *service.GameRecord) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if !record.Winner.Valid() {
		return fmt.Errorf("record %s has no winner", record.SessionID)
	}

	id := record.ID
	if id == "" {
		id = uuid.NewString()
	}
	finishedAt := record.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}
	position := strings.Join(record.FinalPosition, rowSeparator)

	s.enqueue("game", func(tx *sql.Tx) error {
		query := `INSERT INTO games (
			game_id, session_id, config_name, winner, turns,
			dark_remaining, light_remaining, final_position, finished_at_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

		_, err := tx.Exec(query,
			id, record.SessionID, record.ConfigName, string(record.Winner), record.Turns,
			record.DarkRemaining, record.LightRemaining, position, finishedAt.UTC(),
		)
		return err
	})
	return nil
}

// ListGames returns the most recently finished games first
func (s *Store) ListGames(ctx context.Context, limit int) ([]*service.GameRecord, error) {
	return s.QueryGames(ctx, "", limit)
}

// QueryGames retrieves games, optionally filtered by session
func (s *Store) QueryGames(ctx context.Context, sessionID string, limit int) ([]*service.GameRecord, error) {
	query := `SELECT
		game_id, session_id, config_name, winner, turns,
		dark_remaining, light_remaining, final_position, finished_at_utc
	FROM games WHERE 1=1`

	var args []interface{}
	if sessionID != "" && sessionID != "*" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}

	query += " ORDER BY finished_at_utc DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	games := []*service.GameRecord{}
	for rows.Next() {
		var (
			g        service.GameRecord
			winner   string
			position string
		)
		err := rows.Scan(
			&g.ID, &g.SessionID, &g.ConfigName, &winner, &g.Turns,
			&g.DarkRemaining, &g.LightRemaining, &position, &g.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		g.Winner = engine.Player(winner)
		g.FinalPosition = strings.Split(position, rowSeparator)
		games = append(games, &g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return games, nil
}
