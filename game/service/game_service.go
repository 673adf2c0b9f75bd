package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/checkers-game/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Activate(ctx context.Context, sessionID string, row, col int) (*MoveResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetBoard(ctx context.Context, sessionID string) (string, error)

	// Save files
	ExportSave(ctx context.Context, sessionID string) ([]byte, error)
	ImportSave(ctx context.Context, sessionID string, data []byte) (*engine.GameState, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error

	// Archive of finished games
	ListFinishedGames(ctx context.Context, limit int) ([]*GameRecord, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	// Create starts a session on config. layout is the config id it was
	// loaded from, empty for the default layout.
	Create(layout string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	// Save persists sess. The caller holds the session lock.
	Save(sess *Session) error
}

// ConfigManager handles layout loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// GameRecorder stores the outcome of finished games
type GameRecorder interface {
	RecordGame(ctx context.Context, record *GameRecord) error
	ListGames(ctx context.Context, limit int) ([]*GameRecord, error)
}

// Session represents an active game session. Engine and LastAccessedAt are
// guarded by the session lock; the other fields never change after creation.
type Session struct {
	ID             string
	Layout         string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu sync.Mutex
}

// Lock acquires the session lock.
func (s *Session) Lock() {
	s.mu.Lock()
}

// Unlock releases the session lock.
func (s *Session) Unlock() {
	s.mu.Unlock()
}

// LayoutID names the layout the session plays, falling back to the
// config's own name for the default layout.
func (s *Session) LayoutID() string {
	if s.Layout != "" {
		return s.Layout
	}
	return s.Config.Name
}
