package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSnapshot is returned by Restore when the records do not describe
// a reachable board.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Engine provides the main interface for game operations
type Engine interface {
	// Input
	Activate(row, col int) ActivationResult

	// Observable state
	CurrentPlayer() Player
	SelectedPosition() (Position, bool)
	IsForcedCapture() bool
	IsGameOver() bool
	Winner() Player
	Phase() Phase
	ForEachOccupied(fn func(row, col int, owner Player, king bool))
	GetState() *GameState

	// Persistence boundary
	Snapshot() Snapshot
	Restore(s Snapshot) error

	// Lifecycle
	Reset() *GameState
	GetConfig() *GameConfig
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; callers serialize activations.
type GameEngine struct {
	board    *Board
	current  Player
	selected *Piece
	gameOver bool
	winner   Player
	turns    int
	message  string
	config   *GameConfig
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	cfg := *config
	cfg.applyMessageDefaults()
	engine := &GameEngine{config: &cfg}
	if err := engine.resetFromConfig(); err != nil {
		return nil, err
	}

	return engine, nil
}

// NewEngineWithDefaults creates a new game engine with the classic setup
func NewEngineWithDefaults() *GameEngine {
	engine, _ := NewEngine(DefaultConfig()) // the default config always validates
	return engine
}

// NewEngineWithBoard starts a game from an arbitrary position with current
// to move. Reset returns to this position.
func NewEngineWithBoard(board *Board, current Player) (*GameEngine, error) {
	if board == nil {
		return nil, fmt.Errorf("board cannot be nil")
	}
	if !current.Valid() {
		return nil, fmt.Errorf("invalid player %q", current)
	}

	cfg := DefaultConfig()
	cfg.Name = "custom"
	cfg.Description = "Custom position"
	cfg.StartingPlayer = current
	cfg.Layout = EncodeLayout(board)

	board.ForEachPiece(func(p *Piece) {
		p.selected = false
		p.mandatoryCapture = false
	})

	engine := &GameEngine{
		board:   board,
		current: current,
		message: cfg.Messages.Welcome,
		config:  cfg,
	}
	engine.beginTurn()
	return engine, nil
}

func (e *GameEngine) resetFromConfig() error {
	board, err := BuildBoard(e.config.Layout)
	if err != nil {
		return err
	}
	e.board = board
	e.current = e.config.StartingPlayer
	e.selected = nil
	e.gameOver = false
	e.winner = ""
	e.turns = 0
	e.message = e.config.Messages.Welcome
	e.beginTurn()
	return nil
}

// Activate processes one cell activation to completion. Rejected activations
// leave every piece of state untouched.
func (e *GameEngine) Activate(row, col int) ActivationResult {
	target := Position{Row: row, Col: col}
	result := ActivationResult{Player: e.current, Target: target}

	if e.gameOver {
		return e.reject(result, "game is over")
	}
	if !target.InBounds() {
		return e.reject(result, fmt.Sprintf("position %s is off the board", target))
	}
	if e.selected == nil {
		return e.selectPiece(result)
	}

	p := e.selected
	from := p.pos
	result.From = &from

	if p.mandatoryCapture {
		result.ForcedCapture = true
		if !IsCaptureMoveLegal(e.board, p, target) {
			return e.reject(result, fmt.Sprintf("piece at %s must capture", from))
		}
		return e.capture(result, p)
	}

	if IsSimpleMoveLegal(e.board, p, target) {
		return e.simpleMove(result, p)
	}

	e.clearSelection()
	e.message = e.config.Messages.Deselected
	result.Outcome = OutcomeDeselected
	return result
}

func (e *GameEngine) reject(result ActivationResult, reason string) ActivationResult {
	result.Outcome = OutcomeRejected
	result.Reason = reason
	result.Message = e.config.Messages.Rejected
	result.ForcedCapture = e.IsForcedCapture()
	result.GameOver = e.gameOver
	result.Winner = e.winner
	return result
}

func (e *GameEngine) selectPiece(result ActivationResult) ActivationResult {
	p := e.board.at(result.Target)
	if p == nil {
		return e.reject(result, fmt.Sprintf("no piece at %s", result.Target))
	}
	if p.owner != e.current {
		return e.reject(result, fmt.Sprintf("piece at %s belongs to %s", result.Target, p.owner))
	}

	forced := HasAnyCapture(e.board, p)
	p.selected = true
	p.mandatoryCapture = forced
	e.selected = p

	if forced {
		e.message = e.format(e.config.Messages.CaptureRequired, e.current)
	} else {
		e.message = e.format(e.config.Messages.Selected, e.current)
	}
	result.Outcome = OutcomeSelected
	result.ForcedCapture = forced
	return result
}

func (e *GameEngine) simpleMove(result ActivationResult, p *Piece) ActivationResult {
	if err := e.board.Move(p.pos, result.Target); err != nil {
		return e.reject(result, err.Error())
	}
	result.Outcome = OutcomeMoved
	result.Promoted = p.promoteIfEligible()

	e.message = e.format(e.config.Messages.Moved, result.Player)
	if result.Promoted {
		e.message = e.format(e.config.Messages.Promoted, result.Player)
	}
	e.clearSelection()
	e.endTurn()

	result.TurnEnded = true
	result.GameOver = e.gameOver
	result.Winner = e.winner
	return result
}

func (e *GameEngine) capture(result ActivationResult, p *Piece) ActivationResult {
	jumped := midpoint(p.pos, result.Target)
	// Both cells were checked by IsCaptureMoveLegal, so neither call fails.
	if _, err := e.board.Remove(jumped.Row, jumped.Col); err != nil {
		return e.reject(result, err.Error())
	}
	if err := e.board.Move(p.pos, result.Target); err != nil {
		return e.reject(result, err.Error())
	}
	result.Outcome = OutcomeCaptured
	result.Captured = &jumped
	result.Promoted = p.promoteIfEligible()

	e.message = e.format(e.config.Messages.Captured, result.Player)
	if result.Promoted {
		e.message = e.format(e.config.Messages.Promoted, result.Player)
	}

	if HasAnyCapture(e.board, p) {
		p.mandatoryCapture = true
		e.message = e.format(e.config.Messages.ChainContinues, result.Player)
		result.ChainContinues = true
		return result
	}

	e.clearSelection()
	e.endTurn()

	result.TurnEnded = true
	result.GameOver = e.gameOver
	result.Winner = e.winner
	return result
}

func (e *GameEngine) clearSelection() {
	if e.selected != nil {
		e.selected.selected = false
		e.selected.mandatoryCapture = false
		e.selected = nil
	}
}

func (e *GameEngine) endTurn() {
	e.current = e.current.Opponent()
	e.turns++
	e.beginTurn()
}

// beginTurn is the game over sweep: the side to move loses when none of its
// pieces has a move or a capture.
func (e *GameEngine) beginTurn() {
	if PlayerCanAct(e.board, e.current) {
		return
	}
	e.clearSelection()
	e.gameOver = true
	e.winner = e.current.Opponent()
	e.message = e.format(e.config.Messages.GameOver, e.winner)
}

func (e *GameEngine) format(msg string, player Player) string {
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, player)
	}
	return msg
}

// CurrentPlayer returns the side to move
func (e *GameEngine) CurrentPlayer() Player {
	return e.current
}

// SelectedPosition returns the position of the selected piece, if any
func (e *GameEngine) SelectedPosition() (Position, bool) {
	if e.selected == nil {
		return Position{}, false
	}
	return e.selected.pos, true
}

// IsForcedCapture reports whether the selected piece must capture
func (e *GameEngine) IsForcedCapture() bool {
	return e.selected != nil && e.selected.mandatoryCapture
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.gameOver
}

// Winner returns the winning side once the game is over
func (e *GameEngine) Winner() Player {
	return e.winner
}

// Phase returns the turn controller state
func (e *GameEngine) Phase() Phase {
	switch {
	case e.gameOver:
		return PhaseGameOver
	case e.selected != nil:
		return PhasePieceSelected
	default:
		return PhaseAwaitingSelection
	}
}

// ForEachOccupied calls fn for every occupied cell in row-major order
func (e *GameEngine) ForEachOccupied(fn func(row, col int, owner Player, king bool)) {
	e.board.ForEachPiece(func(p *Piece) {
		fn(p.pos.Row, p.pos.Col, p.owner, p.king)
	})
}

// Board returns the live board. Callers must not mutate it.
func (e *GameEngine) Board() *Board {
	return e.board
}

// GetConfig returns the configuration the engine was built from
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// Snapshot captures the board and turn as persistence records
func (e *GameEngine) Snapshot() Snapshot {
	snap := Snapshot{CurrentPlayer: e.current, Pieces: []PieceRecord{}, Turns: e.turns}
	e.board.ForEachPiece(func(p *Piece) {
		snap.Pieces = append(snap.Pieces, PieceRecord{
			Owner:         p.owner,
			Row:           p.pos.Row,
			Col:           p.pos.Col,
			Selected:      p.selected,
			ForcedCapture: p.mandatoryCapture,
			King:          p.king,
		})
	})
	return snap
}

// Restore replaces the board and turn with the ones described by s. On error
// the engine is left unchanged.
func (e *GameEngine) Restore(s Snapshot) error {
	if !s.CurrentPlayer.Valid() {
		return fmt.Errorf("%w: current player %q", ErrInvalidSnapshot, s.CurrentPlayer)
	}
	if s.Turns < 0 {
		return fmt.Errorf("%w: negative turn count %d", ErrInvalidSnapshot, s.Turns)
	}

	board := NewBoard()
	var selected *Piece
	for i, rec := range s.Pieces {
		if !rec.Owner.Valid() {
			return fmt.Errorf("%w: piece %d has owner %q", ErrInvalidSnapshot, i, rec.Owner)
		}
		if !rec.King && rec.Row == rec.Owner.PromotionRow() {
			return fmt.Errorf("%w: %s man at (%d,%d) sits on its crowning row", ErrInvalidSnapshot, rec.Owner, rec.Row, rec.Col)
		}
		piece := NewPiece(rec.Owner)
		if rec.King {
			piece = NewKing(rec.Owner)
		}
		if err := board.Place(piece, rec.Row, rec.Col); err != nil {
			return fmt.Errorf("%w: piece %d: %w", ErrInvalidSnapshot, i, err)
		}
		if !rec.Selected {
			continue
		}
		if selected != nil {
			return fmt.Errorf("%w: more than one selected piece", ErrInvalidSnapshot)
		}
		if rec.Owner != s.CurrentPlayer {
			return fmt.Errorf("%w: selected piece at (%d,%d) is not %s's", ErrInvalidSnapshot, rec.Row, rec.Col, s.CurrentPlayer)
		}
		selected = piece
	}

	e.board = board
	e.current = s.CurrentPlayer
	e.selected = nil
	e.gameOver = false
	e.winner = ""
	e.turns = s.Turns
	e.message = e.config.Messages.Welcome
	if selected != nil {
		selected.selected = true
		selected.mandatoryCapture = HasAnyCapture(board, selected)
		e.selected = selected
	}
	e.beginTurn()
	return nil
}

// Reset restores the starting layout of the engine's configuration
func (e *GameEngine) Reset() *GameState {
	// Layouts are validated or encoded from a live board, so rebuilding cannot fail.
	_ = e.resetFromConfig()
	return e.GetState()
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	snap := e.Snapshot()
	state := &GameState{
		CurrentPlayer: e.current,
		Phase:         e.Phase(),
		ForcedCapture: e.IsForcedCapture(),
		GameOver:      e.gameOver,
		Winner:        e.winner,
		Pieces:        snap.Pieces,
		TurnCount:     e.turns,
		Message:       e.message,
		ConfigName:    e.config.Name,
	}
	if pos, ok := e.SelectedPosition(); ok {
		state.Selected = &pos
		state.LegalTargets = LegalTargets(e.board, e.selected)
	}
	for _, rec := range snap.Pieces {
		switch {
		case rec.Owner == Dark:
			state.DarkCount++
			if rec.King {
				state.DarkKings++
			}
		default:
			state.LightCount++
			if rec.King {
				state.LightKings++
			}
		}
	}
	return state
}
