package service

import (
	"time"

	"github.com/wricardo/checkers-game/game/engine"
)

// Event types reported in MoveResult.Events
const (
	EventSelect   = "select"
	EventDeselect = "deselect"
	EventMove     = "move"
	EventCapture  = "capture"
	EventPromote  = "promote"
	EventTurn     = "turn"
	EventGameOver = "game_over"
	EventRejected = "rejected"
	EventReset    = "reset"
	EventRestore  = "restore"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// MoveResult contains the result of a cell activation
type MoveResult struct {
	Success    bool                    `json:"success"`
	Activation engine.ActivationResult `json:"activation"`
	GameState  *engine.GameState       `json:"game_state"`
	Message    string                  `json:"message"`
	Events     []GameEvent             `json:"events,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string           `json:"type"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Player    engine.Player    `json:"player,omitempty"`
	Position  *engine.Position `json:"position,omitempty"`
}

// ConfigInfo provides information about a starting layout
type ConfigInfo struct {
	Filename       string        `json:"filename"`
	ConfigID       string        `json:"config_id"` // The identifier to use for session creation
	Name           string        `json:"name"`      // Display name
	Description    string        `json:"description"`
	StartingPlayer engine.Player `json:"starting_player"`
	DarkPieces     int           `json:"dark_pieces"`
	LightPieces    int           `json:"light_pieces"`
}

// GameRecord summarizes a finished game for the archive
type GameRecord struct {
	ID             string        `json:"id"`
	SessionID      string        `json:"session_id"`
	ConfigName     string        `json:"config_name"`
	Winner         engine.Player `json:"winner"`
	Turns          int           `json:"turns"`
	DarkRemaining  int           `json:"dark_remaining"`
	LightRemaining int           `json:"light_remaining"`
	FinalPosition  []string      `json:"final_position"`
	FinishedAt     time.Time     `json:"finished_at"`
}
