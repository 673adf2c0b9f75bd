// Command analyze prints quick, human-readable heuristics about the starting
// layouts in a configs directory. For each side it summarizes material,
// how many pieces can move, which pieces already threaten a capture and how
// far the men are from their crowning row.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/checkers-game/game/engine"
)

// SideAnalysis holds the mobility figures for one player.
type SideAnalysis struct {
	Pieces       int
	Kings        int
	Movable      int
	CaptureReady []engine.Position
	Targets      int
	// CrownDistance is the summed number of rows the men still need to
	// travel to be crowned.
	CrownDistance int
}

// AvgCrownDistance returns the mean distance of the men to promotion.
func (s SideAnalysis) AvgCrownDistance() float64 {
	men := s.Pieces - s.Kings
	if men == 0 {
		return 0
	}
	return float64(s.CrownDistance) / float64(men)
}

// LayoutAnalysis is the report for one layout file.
type LayoutAnalysis struct {
	Name           string
	Description    string
	StartingPlayer engine.Player
	Sides          map[engine.Player]*SideAnalysis
}

func analyzeLayout(config *engine.GameConfig) (*LayoutAnalysis, error) {
	board, err := engine.BuildBoard(config.Layout)
	if err != nil {
		return nil, err
	}

	analysis := &LayoutAnalysis{
		Name:           config.Name,
		Description:    config.Description,
		StartingPlayer: config.StartingPlayer,
		Sides: map[engine.Player]*SideAnalysis{
			engine.Dark:  {},
			engine.Light: {},
		},
	}

	board.ForEachPiece(func(p *engine.Piece) {
		side := analysis.Sides[p.Owner()]
		side.Pieces++
		if p.IsKing() {
			side.Kings++
		} else {
			side.CrownDistance += abs(p.Owner().PromotionRow() - p.Position().Row)
		}

		targets := engine.LegalTargets(board, p)
		if len(targets) > 0 {
			side.Movable++
			side.Targets += len(targets)
		}
		if engine.HasAnyCapture(board, p) {
			side.CaptureReady = append(side.CaptureReady, p.Position())
		}
	})

	return analysis, nil
}

func printAnalysis(w io.Writer, a *LayoutAnalysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	if a.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", a.Description)
	}
	fmt.Fprintf(w, "Starting Player: %s\n", a.StartingPlayer)

	for _, player := range []engine.Player{engine.Dark, engine.Light} {
		side := a.Sides[player]
		fmt.Fprintf(w, "%s: %d pieces (%d kings), %d movable, %d targets, avg %.1f rows to crown\n",
			player, side.Pieces, side.Kings, side.Movable, side.Targets, side.AvgCrownDistance())
		for _, pos := range side.CaptureReady {
			fmt.Fprintf(w, "   Capture ready: %s\n", pos)
		}
	}

	if starting := a.Sides[a.StartingPlayer]; starting.Movable == 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %s cannot act, the game is over before it starts\n", a.StartingPlayer)
	} else if len(starting.CaptureReady) > 0 {
		fmt.Fprintf(w, "⚠️  %s opens with a capture available\n", a.StartingPlayer)
	} else {
		fmt.Fprintf(w, "✅ %s has %d opening moves\n", a.StartingPlayer, starting.Targets)
	}
}

func analyzeFile(w io.Writer, path string) {
	config, err := engine.LoadGameConfig(path)
	if err != nil {
		fmt.Fprintf(w, "Error loading file: %v\n", err)
		return
	}
	analysis, err := analyzeLayout(config)
	if err != nil {
		fmt.Fprintf(w, "Error building board: %v\n", err)
		return
	}
	printAnalysis(w, analysis)
}

func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	var files []string
	for _, ext := range engine.ConfigExtensions {
		matches, err := filepath.Glob(filepath.Join(configDir, "*"+ext))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing %s: %v\n", configDir, err)
			os.Exit(1)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		analyzeFile(os.Stdout, file)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
