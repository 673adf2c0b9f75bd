package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/checkers-game/game/engine"
	"github.com/wricardo/checkers-game/game/savefile"
)

var (
	// ErrArchiveDisabled is returned by ListFinishedGames when no recorder is configured
	ErrArchiveDisabled = errors.New("game archive is not enabled")
	// ErrUnknownConfig is returned by CreateSession for a layout that does not exist
	ErrUnknownConfig = errors.New("config not found")
)

// Option configures the game service
type Option func(*gameServiceImpl)

// WithRecorder archives every game that ends through an activation
func WithRecorder(recorder GameRecorder) Option {
	return func(s *gameServiceImpl) {
		s.recorder = recorder
	}
}

// WithLogger sets the service logger
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *gameServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	recorder GameRecorder
	logger   *zap.SugaredLogger
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// sessionInfo describes sess. The caller holds the session lock.
func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.LayoutID(),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

// lockSession looks up a session, locks it and marks it accessed. The caller
// must Unlock it.
func (s *gameServiceImpl) lockSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	sess.Lock()
	sess.LastAccessedAt = time.Now()
	return sess, nil
}

// persist writes sess through the session manager. The caller holds the
// session lock.
func (s *gameServiceImpl) persist(sess *Session, after string) {
	if err := s.sessions.Save(sess); err != nil {
		s.logger.Warnw("failed to persist session after "+after, "session_id", sess.ID, "error", err)
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	// Load configuration
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrUnknownConfig, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrUnknownConfig, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	session, err := s.sessions.Create(configName, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.logger.Infow("session created", "session_id", session.ID, "config", session.LayoutID())

	session.Lock()
	defer session.Unlock()
	return s.sessionInfo(session), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		sess.Lock()
		result = append(result, s.sessionInfo(sess))
		sess.Unlock()
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.logger.Infow("session deleted", "session_id", sessionID)
	return nil
}

// Activate delivers one cell activation to the session's engine
func (s *gameServiceImpl) Activate(ctx context.Context, sessionID string, row, col int) (*MoveResult, error) {
	sess, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	wasOver := sess.Engine.IsGameOver()
	activation := sess.Engine.Activate(row, col)
	state := sess.Engine.GetState()

	result := &MoveResult{
		Success:    activation.Changed(),
		Activation: activation,
		GameState:  state,
		Message:    state.Message,
		Events:     activationEvents(activation, state),
	}
	if !activation.Changed() {
		result.Message = fmt.Sprintf("%s: %s", activation.Message, activation.Reason)
		return result, nil
	}

	s.persist(sess, "activation")

	if !wasOver && state.GameOver {
		s.logger.Infow("game finished", "session_id", sessionID, "winner", state.Winner, "turns", state.TurnCount)
		s.recordFinished(ctx, sess, state)
	}

	return result, nil
}

// recordFinished hands a finished game to the recorder, if any.
func (s *gameServiceImpl) recordFinished(ctx context.Context, sess *Session, state *engine.GameState) {
	if s.recorder == nil {
		return
	}
	record := &GameRecord{
		ID:             uuid.NewString(),
		SessionID:      sess.ID,
		ConfigName:     sess.LayoutID(),
		Winner:         state.Winner,
		Turns:          state.TurnCount,
		DarkRemaining:  state.DarkCount,
		LightRemaining: state.LightCount,
		FinalPosition:  engine.EncodeLayout(sess.Engine.Board()),
		FinishedAt:     time.Now(),
	}
	if err := s.recorder.RecordGame(ctx, record); err != nil {
		s.logger.Warnw("failed to record finished game", "session_id", sess.ID, "error", err)
	}
}

// activationEvents translates an activation into client-facing events
func activationEvents(a engine.ActivationResult, state *engine.GameState) []GameEvent {
	now := time.Now()
	target := a.Target
	event := func(typ, msg string, pos *engine.Position) GameEvent {
		return GameEvent{Type: typ, Message: msg, Timestamp: now, Player: a.Player, Position: pos}
	}

	var events []GameEvent
	switch a.Outcome {
	case engine.OutcomeRejected:
		return []GameEvent{event(EventRejected, a.Reason, &target)}
	case engine.OutcomeSelected:
		msg := fmt.Sprintf("%s selected %s", a.Player, target)
		if a.ForcedCapture {
			msg += ", capture required"
		}
		events = append(events, event(EventSelect, msg, &target))
	case engine.OutcomeDeselected:
		events = append(events, event(EventDeselect, "selection cleared", &target))
	case engine.OutcomeMoved:
		events = append(events, event(EventMove, fmt.Sprintf("%s moved %s to %s", a.Player, a.From, target), &target))
	case engine.OutcomeCaptured:
		events = append(events, event(EventCapture, fmt.Sprintf("%s jumped %s to %s capturing %s", a.Player, a.From, target, a.Captured), &target))
	}

	if a.Promoted {
		events = append(events, event(EventPromote, fmt.Sprintf("%s piece crowned at %s", a.Player, target), &target))
	}
	if a.ChainContinues {
		events = append(events, event(EventCapture, "another capture is required with the same piece", &target))
	}
	if a.TurnEnded && !state.GameOver {
		events = append(events, GameEvent{
			Type:      EventTurn,
			Message:   fmt.Sprintf("%s to move", state.CurrentPlayer),
			Timestamp: now,
			Player:    state.CurrentPlayer,
		})
	}
	if state.GameOver {
		events = append(events, GameEvent{
			Type:      EventGameOver,
			Message:   state.Message,
			Timestamp: now,
			Player:    state.Winner,
		})
	}
	return events
}

// StateEvent reports a change that replaced the whole position, such as a
// reset (EventReset) or an imported save (EventRestore).
func StateEvent(typ, message string, state *engine.GameState) GameEvent {
	return GameEvent{
		Type:      typ,
		Message:   message,
		Timestamp: time.Now(),
		Player:    state.CurrentPlayer,
	}
}

// Reset resets a game session to its starting layout
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	state := sess.Engine.Reset()
	s.persist(sess, "reset")
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()
	return sess.Engine.GetState(), nil
}

// GetBoard renders the session's board as text
func (s *gameServiceImpl) GetBoard(ctx context.Context, sessionID string) (string, error) {
	state, err := s.GetGameState(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return engine.FormatBoard(state) + engine.StatusLine(state) + "\n", nil
}

// ExportSave encodes the session in the save file format
func (s *gameServiceImpl) ExportSave(ctx context.Context, sessionID string) ([]byte, error) {
	sess, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()
	return savefile.Marshal(sess.Engine.Snapshot()), nil
}

// ImportSave replaces the session's board and turn with a save file
func (s *gameServiceImpl) ImportSave(ctx context.Context, sessionID string, data []byte) (*engine.GameState, error) {
	snap, err := savefile.Unmarshal(data)
	if err != nil {
		return nil, err
	}

	sess, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	if err := sess.Engine.Restore(snap); err != nil {
		return nil, fmt.Errorf("%w: %w", savefile.ErrInvalidSave, err)
	}
	s.persist(sess, "import")
	s.logger.Infow("save imported", "session_id", sessionID, "pieces", len(snap.Pieces))
	return sess.Engine.GetState(), nil
}

// ListConfigs returns available layouts
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific layout
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a layout to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// ListFinishedGames returns the most recently archived games
func (s *gameServiceImpl) ListFinishedGames(ctx context.Context, limit int) ([]*GameRecord, error) {
	if s.recorder == nil {
		return nil, ErrArchiveDisabled
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.recorder.ListGames(ctx, limit)
}
