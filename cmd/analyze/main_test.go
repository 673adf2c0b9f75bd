package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/checkers-game/game/engine"
)

func TestAnalyzeStandardLayout(t *testing.T) {
	analysis, err := analyzeLayout(engine.DefaultConfig())
	if err != nil {
		t.Fatalf("analyzeLayout: %v", err)
	}

	for _, player := range []engine.Player{engine.Dark, engine.Light} {
		side := analysis.Sides[player]
		if side.Pieces != 12 {
			t.Errorf("%s pieces = %d, want 12", player, side.Pieces)
		}
		if side.Kings != 0 {
			t.Errorf("%s kings = %d, want 0", player, side.Kings)
		}
		if side.Movable != 4 {
			t.Errorf("%s movable = %d, want 4", player, side.Movable)
		}
		if side.Targets != 7 {
			t.Errorf("%s targets = %d, want 7", player, side.Targets)
		}
		if len(side.CaptureReady) != 0 {
			t.Errorf("%s capture ready = %v, want none", player, side.CaptureReady)
		}
		if got := side.AvgCrownDistance(); got != 6 {
			t.Errorf("%s avg crown distance = %v, want 6", player, got)
		}
	}
}

func TestAnalyzeCaptureLayout(t *testing.T) {
	config := &engine.GameConfig{
		Name:           "capture",
		StartingPlayer: engine.Dark,
		Layout: []string{
			".d......",
			"........",
			".d......",
			"..l.....",
			"........",
			"....l...",
			"........",
			"l.l.....",
		},
	}

	analysis, err := analyzeLayout(config)
	if err != nil {
		t.Fatalf("analyzeLayout: %v", err)
	}

	dark := analysis.Sides[engine.Dark]
	if dark.Pieces != 2 || dark.Movable != 2 {
		t.Errorf("dark = %+v, want 2 pieces, 2 movable", dark)
	}
	if len(dark.CaptureReady) != 1 || dark.CaptureReady[0] != (engine.Position{Row: 2, Col: 1}) {
		t.Errorf("dark capture ready = %v, want [(2,1)]", dark.CaptureReady)
	}
	// (0,1) has two simple moves, (2,1) only its capture
	if dark.Targets != 3 {
		t.Errorf("dark targets = %d, want 3", dark.Targets)
	}

	var out bytes.Buffer
	printAnalysis(&out, analysis)
	for _, want := range []string{"Capture ready: (2,1)", "dark opens with a capture available"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestAnalyzeKingsOnly(t *testing.T) {
	config := &engine.GameConfig{
		Name:           "kings",
		StartingPlayer: engine.Light,
		Layout: []string{
			"........",
			"........",
			"...D....",
			"........",
			"........",
			"..L.....",
			"........",
			"........",
		},
	}

	analysis, err := analyzeLayout(config)
	if err != nil {
		t.Fatalf("analyzeLayout: %v", err)
	}
	if got := analysis.Sides[engine.Dark].AvgCrownDistance(); got != 0 {
		t.Errorf("avg crown distance with only kings = %v, want 0", got)
	}
	if analysis.Sides[engine.Light].Targets != 4 {
		t.Errorf("light king targets = %d, want 4", analysis.Sides[engine.Light].Targets)
	}
}

func TestAnalyzeFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	content := "name: good\ndescription: one man each\nstarting_player: dark\nlayout:\n" +
		"  - \"........\"\n  - \"........\"\n  - \".d......\"\n  - \"........\"\n" +
		"  - \"........\"\n  - \"........\"\n  - \"........\"\n  - \"l.......\"\n" +
		"messages:\n  welcome: \"hi\"\n  game_over: \"%s wins\"\n"
	if err := os.WriteFile(good, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out bytes.Buffer
	analyzeFile(&out, good)
	if !strings.Contains(out.String(), "✅ dark has 2 opening moves") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	out.Reset()
	analyzeFile(&out, filepath.Join(dir, "missing.json"))
	if !strings.Contains(out.String(), "Error loading file") {
		t.Errorf("missing file output = %q", out.String())
	}
}

func TestAbs(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{5, 5},
		{-5, 5},
		{0, 0},
		{-7, 7},
	}

	for _, test := range tests {
		if result := abs(test.input); result != test.expected {
			t.Errorf("abs(%d) = %d, expected %d", test.input, result, test.expected)
		}
	}
}
