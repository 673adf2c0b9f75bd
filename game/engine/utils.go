package engine

import (
	"fmt"
	"strings"
)

// FormatBoard renders the state as an ASCII board with row and column
// indexes. Dark pieces are d/D, light pieces l/L, the selected piece is
// wrapped in brackets and its legal targets are marked with '*'.
func FormatBoard(state *GameState) string {
	var grid [BoardSize][BoardSize]byte
	for r := range grid {
		for c := range grid[r] {
			grid[r][c] = LayoutEmpty
		}
	}
	for _, rec := range state.Pieces {
		if !(Position{Row: rec.Row, Col: rec.Col}).InBounds() {
			continue
		}
		grid[rec.Row][rec.Col] = encodeLayoutChar(&Piece{owner: rec.Owner, king: rec.King})
	}
	targets := make(map[Position]bool, len(state.LegalTargets))
	for _, t := range state.LegalTargets {
		targets[t] = true
	}

	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < BoardSize; c++ {
		fmt.Fprintf(&sb, " %d ", c)
	}
	sb.WriteByte('\n')
	for r := 0; r < BoardSize; r++ {
		fmt.Fprintf(&sb, "%d  ", r)
		for c := 0; c < BoardSize; c++ {
			pos := Position{Row: r, Col: c}
			switch {
			case state.Selected != nil && *state.Selected == pos:
				fmt.Fprintf(&sb, "[%c]", grid[r][c])
			case targets[pos]:
				sb.WriteString(" * ")
			default:
				fmt.Fprintf(&sb, " %c ", grid[r][c])
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// StatusLine summarizes whose turn it is and the material on the board.
func StatusLine(state *GameState) string {
	if state.GameOver {
		return fmt.Sprintf("game over, %s wins (dark %d, light %d)", state.Winner, state.DarkCount, state.LightCount)
	}
	status := fmt.Sprintf("%s to move (dark %d, light %d)", state.CurrentPlayer, state.DarkCount, state.LightCount)
	if state.ForcedCapture {
		status += ", capture required"
	}
	return status
}
