// Package savefile encodes engine snapshots in the line-delimited save format.
//
// The first line holds the side to move ("true" for dark, "false" for
// light). Every following line describes one occupied cell as six
// space-separated fields:
//
//	owner row col selected forced_capture king
//
// where owner is "true" for dark. For example "true 2 1 false false false"
// is an unselected dark man on (2,1). Blank lines are ignored.
package savefile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wricardo/checkers-game/game/engine"
)

// ErrInvalidSave is returned for input that is not a well-formed save.
var ErrInvalidSave = errors.New("invalid save file")

const fieldsPerPiece = 6

// Encode writes snap to w.
func Encode(w io.Writer, snap engine.Snapshot) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, formatBool(snap.CurrentPlayer == engine.Dark))
	for _, rec := range snap.Pieces {
		fmt.Fprintf(bw, "%s %d %d %s %s %s\n",
			formatBool(rec.Owner == engine.Dark),
			rec.Row, rec.Col,
			formatBool(rec.Selected),
			formatBool(rec.ForcedCapture),
			formatBool(rec.King))
	}
	return bw.Flush()
}

// Marshal returns the encoded form of snap.
func Marshal(snap engine.Snapshot) []byte {
	var buf bytes.Buffer
	_ = Encode(&buf, snap) // writes to a bytes.Buffer do not fail
	return buf.Bytes()
}

// Decode reads a snapshot from r. Board level checks such as duplicate cells
// are left to engine.Restore.
func Decode(r io.Reader) (engine.Snapshot, error) {
	scanner := bufio.NewScanner(r)
	snap := engine.Snapshot{Pieces: []engine.PieceRecord{}}
	lineNo := 0
	haveHeader := false

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !haveHeader {
			dark, err := parseBool(line)
			if err != nil {
				return engine.Snapshot{}, fmt.Errorf("%w: line %d: current player: %v", ErrInvalidSave, lineNo, err)
			}
			snap.CurrentPlayer = playerFor(dark)
			haveHeader = true
			continue
		}

		rec, err := parsePiece(line)
		if err != nil {
			return engine.Snapshot{}, fmt.Errorf("%w: line %d: %v", ErrInvalidSave, lineNo, err)
		}
		snap.Pieces = append(snap.Pieces, rec)
	}
	if err := scanner.Err(); err != nil {
		return engine.Snapshot{}, fmt.Errorf("read save: %w", err)
	}
	if !haveHeader {
		return engine.Snapshot{}, fmt.Errorf("%w: missing current player line", ErrInvalidSave)
	}
	return snap, nil
}

// Unmarshal decodes data.
func Unmarshal(data []byte) (engine.Snapshot, error) {
	return Decode(bytes.NewReader(data))
}

// WriteFile writes snap to path, replacing any existing file.
func WriteFile(path string, snap engine.Snapshot) error {
	return os.WriteFile(path, Marshal(snap), 0644)
}

// ReadFile reads a snapshot from path.
func ReadFile(path string) (engine.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return engine.Snapshot{}, err
	}
	defer f.Close()
	return Decode(f)
}

func parsePiece(line string) (engine.PieceRecord, error) {
	fields := strings.Fields(line)
	if len(fields) != fieldsPerPiece {
		return engine.PieceRecord{}, fmt.Errorf("expected %d fields, got %d", fieldsPerPiece, len(fields))
	}

	dark, err := parseBool(fields[0])
	if err != nil {
		return engine.PieceRecord{}, fmt.Errorf("owner: %v", err)
	}
	row, err := strconv.Atoi(fields[1])
	if err != nil {
		return engine.PieceRecord{}, fmt.Errorf("row: %v", err)
	}
	col, err := strconv.Atoi(fields[2])
	if err != nil {
		return engine.PieceRecord{}, fmt.Errorf("col: %v", err)
	}

	var flags [3]bool
	for i, name := range []string{"selected", "forced_capture", "king"} {
		if flags[i], err = parseBool(fields[3+i]); err != nil {
			return engine.PieceRecord{}, fmt.Errorf("%s: %v", name, err)
		}
	}

	return engine.PieceRecord{
		Owner:         playerFor(dark),
		Row:           row,
		Col:           col,
		Selected:      flags[0],
		ForcedCapture: flags[1],
		King:          flags[2],
	}, nil
}

func parseBool(s string) (bool, error) {
	switch {
	case strings.EqualFold(s, "true"):
		return true, nil
	case strings.EqualFold(s, "false"):
		return false, nil
	}
	return false, fmt.Errorf("%q is not true or false", s)
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

func playerFor(dark bool) engine.Player {
	if dark {
		return engine.Dark
	}
	return engine.Light
}
