package engine

// direction is one diagonal step.
type direction struct {
	dRow int
	dCol int
}

// diagonals lists the four diagonal steps; each piece uses the subset its
// row direction allows.
var diagonals = [4]direction{
	{dRow: 1, dCol: -1},
	{dRow: 1, dCol: 1},
	{dRow: -1, dCol: -1},
	{dRow: -1, dCol: 1},
}

// allowsRowStep reports whether p may travel with the sign of dRow.
func allowsRowStep(p *Piece, dRow int) bool {
	if p.king {
		return true
	}
	return dRow == p.owner.Forward()
}

// IsSimpleMoveLegal reports whether p may step onto target: one diagonal
// square in an allowed direction, onto an empty cell.
func IsSimpleMoveLegal(board *Board, p *Piece, target Position) bool {
	if board == nil || p == nil || !target.InBounds() {
		return false
	}
	dRow := target.Row - p.pos.Row
	dCol := target.Col - p.pos.Col
	if abs(dRow) != 1 || abs(dCol) != 1 {
		return false
	}
	if !allowsRowStep(p, dRow) {
		return false
	}
	return board.at(target) == nil
}

// IsCaptureMoveLegal reports whether p may jump onto target: two diagonal
// squares in an allowed direction, over an opponent piece, onto an empty cell.
func IsCaptureMoveLegal(board *Board, p *Piece, target Position) bool {
	if board == nil || p == nil || !target.InBounds() {
		return false
	}
	dRow := target.Row - p.pos.Row
	dCol := target.Col - p.pos.Col
	if abs(dRow) != 2 || abs(dCol) != 2 {
		return false
	}
	if !allowsRowStep(p, dRow) {
		return false
	}
	if board.at(target) != nil {
		return false
	}
	jumped := board.at(midpoint(p.pos, target))
	return jumped != nil && jumped.owner != p.owner
}

// HasAnyCapture reports whether p has at least one legal capture from its
// current position. Nothing is cached.
func HasAnyCapture(board *Board, p *Piece) bool {
	return len(CaptureTargets(board, p)) > 0
}

// HasAnySimpleMove reports whether p has at least one legal simple move.
func HasAnySimpleMove(board *Board, p *Piece) bool {
	return len(SimpleMoveTargets(board, p)) > 0
}

// CaptureTargets returns the landing squares of every legal capture for p.
func CaptureTargets(board *Board, p *Piece) []Position {
	return targets(board, p, 2, IsCaptureMoveLegal)
}

// SimpleMoveTargets returns every legal simple move destination for p.
func SimpleMoveTargets(board *Board, p *Piece) []Position {
	return targets(board, p, 1, IsSimpleMoveLegal)
}

// LegalTargets returns what p may activate once selected: its captures when
// it has any, otherwise its simple moves.
func LegalTargets(board *Board, p *Piece) []Position {
	if captures := CaptureTargets(board, p); len(captures) > 0 {
		return captures
	}
	return SimpleMoveTargets(board, p)
}

// PlayerCanAct reports whether player has any move or capture anywhere on
// the board.
func PlayerCanAct(board *Board, player Player) bool {
	found := false
	board.ForEachPiece(func(p *Piece) {
		if found || p.owner != player {
			return
		}
		found = HasAnySimpleMove(board, p) || HasAnyCapture(board, p)
	})
	return found
}

func targets(board *Board, p *Piece, distance int, legal func(*Board, *Piece, Position) bool) []Position {
	if board == nil || p == nil {
		return nil
	}
	var out []Position
	for _, d := range diagonals {
		if !allowsRowStep(p, d.dRow) {
			continue
		}
		target := Position{Row: p.pos.Row + distance*d.dRow, Col: p.pos.Col + distance*d.dCol}
		if legal(board, p, target) {
			out = append(out, target)
		}
	}
	return out
}

func midpoint(from, to Position) Position {
	return Position{Row: (from.Row + to.Row) / 2, Col: (from.Col + to.Col) / 2}
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
