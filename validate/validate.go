// Command validate checks the starting layouts in a configuration directory
// (../configs by default). For each .json, .yaml or .yml file it checks:
//   - the file parses and passes engine validation
//   - piece counts per side, kings included
//   - the starting side has at least one legal move or capture
//   - whether the opening already forces a capture
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/checkers-game/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateConfig loads and validates a single layout file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	config, err := engine.LoadGameConfig(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	board, err := engine.BuildBoard(config.Layout)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid layout: %v", err))
		return result
	}

	playable := validatePlayability(board, config.StartingPlayer)
	if !playable.Valid {
		result.Valid = false
		result.Errors = append(result.Errors, playable.Errors...)
		return result
	}

	kings := map[engine.Player]int{}
	board.ForEachPiece(func(p *engine.Piece) {
		if p.IsKing() {
			kings[p.Owner()]++
		}
	})

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", config.Name))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Dark: %d pieces (%d kings)", board.Count(engine.Dark), kings[engine.Dark]))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Light: %d pieces (%d kings)", board.Count(engine.Light), kings[engine.Light]))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Starting player: %s", config.StartingPlayer))
	result.Errors = append(result.Errors, playable.Errors...)

	return result
}

// validatePlayability ensures the starting side can act, so the game does
// not end before the first activation. It also reports whether the opening
// position already forces a capture.
func validatePlayability(board *engine.Board, starting engine.Player) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	if !engine.PlayerCanAct(board, starting) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("%s has no legal move or capture in the starting position", starting))
		return result
	}

	var capturing []string
	board.ForEachPiece(func(p *engine.Piece) {
		if p.Owner() == starting && engine.HasAnyCapture(board, p) {
			capturing = append(capturing, p.Position().String())
		}
	})

	if len(capturing) > 0 {
		sort.Strings(capturing)
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Opening capture forced for %s: %s", starting, strings.Join(capturing, " ")))
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Playable: %s has a legal opening move", starting))
	}

	return result
}

// configFiles lists the layout files in dir, sorted by name.
func configFiles(dir string) ([]string, error) {
	var files []string
	for _, ext := range engine.ConfigExtensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main validates every layout in the directory given as the first argument,
// printing a concise report and exiting non-zero if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := configFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No configuration files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
