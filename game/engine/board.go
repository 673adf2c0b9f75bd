package engine

import (
	"errors"
	"fmt"
)

// BoardSize is the number of rows and columns on the board.
const BoardSize = 8

// Player identifies one of the two sides.
type Player string

const (
	Dark  Player = "dark"
	Light Player = "light"
)

// Board errors. ErrCellOccupied and ErrCellEmpty wrap ErrIllegalOperation.
var (
	ErrOutOfBounds      = errors.New("position out of bounds")
	ErrIllegalOperation = errors.New("illegal board operation")
	ErrCellOccupied     = fmt.Errorf("%w: cell is occupied", ErrIllegalOperation)
	ErrCellEmpty        = fmt.Errorf("%w: cell is empty", ErrIllegalOperation)
)

// ParsePlayer converts a string into a Player.
func ParsePlayer(s string) (Player, error) {
	switch Player(s) {
	case Dark, Light:
		return Player(s), nil
	}
	return "", fmt.Errorf("unknown player %q", s)
}

// Valid reports whether p is one of the two sides.
func (p Player) Valid() bool {
	return p == Dark || p == Light
}

// Opponent returns the other side.
func (p Player) Opponent() Player {
	if p == Dark {
		return Light
	}
	return Dark
}

// Forward returns the row delta of a non-king move for p.
func (p Player) Forward() int {
	if p == Dark {
		return 1
	}
	return -1
}

// PromotionRow returns the farthest row from p's starting edge.
func (p Player) PromotionRow() int {
	if p == Dark {
		return BoardSize - 1
	}
	return 0
}

// Position represents row,col coordinates
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InBounds reports whether the position is on the board.
func (p Position) InBounds() bool {
	return p.Row >= 0 && p.Row < BoardSize && p.Col >= 0 && p.Col < BoardSize
}

// IsDarkSquare reports whether the position is a playable square.
func (p Position) IsDarkSquare() bool {
	return (p.Row+p.Col)%2 == 1
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Piece is a single checker. Owner never changes; the king flag only goes
// from false to true.
type Piece struct {
	owner            Player
	pos              Position
	onBoard          bool
	king             bool
	selected         bool
	mandatoryCapture bool
}

// NewPiece creates a man for owner that is not yet on a board.
func NewPiece(owner Player) *Piece {
	return &Piece{owner: owner}
}

// NewKing creates a king for owner that is not yet on a board.
func NewKing(owner Player) *Piece {
	return &Piece{owner: owner, king: true}
}

// Owner returns the side the piece belongs to.
func (p *Piece) Owner() Player {
	return p.owner
}

// Position returns the cell the piece stands on.
func (p *Piece) Position() Position {
	return p.pos
}

// IsKing reports whether the piece has been crowned.
func (p *Piece) IsKing() bool {
	return p.king
}

// IsSelected reports whether the piece is the current selection.
func (p *Piece) IsSelected() bool {
	return p.selected
}

// HasMandatoryCapture reports whether the selected piece must capture next.
func (p *Piece) HasMandatoryCapture() bool {
	return p.mandatoryCapture
}

// promoteIfEligible crowns the piece when it stands on its promotion row.
// It reports whether the piece became a king during this call.
func (p *Piece) promoteIfEligible() bool {
	if p.king || p.pos.Row != p.owner.PromotionRow() {
		return false
	}
	p.king = true
	return true
}

// Board is the 8x8 grid. Every piece on it is owned by the board and its
// coordinates always match the cell that references it.
type Board struct {
	cells [BoardSize][BoardSize]*Piece
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{}
}

// Occupant returns the piece at row,col or nil when the cell is empty.
func (b *Board) Occupant(row, col int) (*Piece, error) {
	pos := Position{Row: row, Col: col}
	if !pos.InBounds() {
		return nil, fmt.Errorf("occupant %s: %w", pos, ErrOutOfBounds)
	}
	return b.cells[row][col], nil
}

// Place puts a piece that is not on any board onto row,col.
func (b *Board) Place(p *Piece, row, col int) error {
	pos := Position{Row: row, Col: col}
	if !pos.InBounds() {
		return fmt.Errorf("place %s: %w", pos, ErrOutOfBounds)
	}
	if p == nil {
		return fmt.Errorf("place %s: %w: nil piece", pos, ErrIllegalOperation)
	}
	if p.onBoard {
		return fmt.Errorf("place %s: %w: piece already at %s", pos, ErrIllegalOperation, p.pos)
	}
	if b.cells[row][col] != nil {
		return fmt.Errorf("place %s: %w", pos, ErrCellOccupied)
	}
	p.pos = pos
	p.onBoard = true
	b.cells[row][col] = p
	return nil
}

// Remove takes the piece off row,col and returns it.
func (b *Board) Remove(row, col int) (*Piece, error) {
	pos := Position{Row: row, Col: col}
	if !pos.InBounds() {
		return nil, fmt.Errorf("remove %s: %w", pos, ErrOutOfBounds)
	}
	p := b.cells[row][col]
	if p == nil {
		return nil, fmt.Errorf("remove %s: %w", pos, ErrCellEmpty)
	}
	b.cells[row][col] = nil
	p.onBoard = false
	p.selected = false
	p.mandatoryCapture = false
	return p, nil
}

// Move relocates the piece on from to the empty cell to.
func (b *Board) Move(from, to Position) error {
	if !from.InBounds() || !to.InBounds() {
		return fmt.Errorf("move %s->%s: %w", from, to, ErrOutOfBounds)
	}
	p := b.cells[from.Row][from.Col]
	if p == nil {
		return fmt.Errorf("move %s->%s: %w", from, to, ErrCellEmpty)
	}
	if b.cells[to.Row][to.Col] != nil {
		return fmt.Errorf("move %s->%s: %w", from, to, ErrCellOccupied)
	}
	b.cells[from.Row][from.Col] = nil
	b.cells[to.Row][to.Col] = p
	p.pos = to
	return nil
}

// ForEachPiece calls fn for every piece in row-major order.
func (b *Board) ForEachPiece(fn func(p *Piece)) {
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if p := b.cells[r][c]; p != nil {
				fn(p)
			}
		}
	}
}

// Count returns the number of pieces owner has on the board.
func (b *Board) Count(owner Player) int {
	n := 0
	b.ForEachPiece(func(p *Piece) {
		if p.owner == owner {
			n++
		}
	})
	return n
}

// at is Occupant for positions already known to be in bounds.
func (b *Board) at(pos Position) *Piece {
	if !pos.InBounds() {
		return nil
	}
	return b.cells[pos.Row][pos.Col]
}
