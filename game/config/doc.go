// Package config provides layout management for the checkers game.
//
// The config package handles:
//   - Loading starting layouts from JSON or YAML files
//   - Layout validation through engine.ValidateGameConfig
//   - Default layout selection
//   - Layout discovery and listing
//
// Layout Format:
//
// Each file in the configs directory describes one starting position:
// eight rows of eight characters where '.' is empty, 'd'/'D' a dark man or
// king and 'l'/'L' a light man or king. Pieces must sit on squares where
// row+col is odd. A file also names the side to move and may override the
// player-facing messages.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	layout, err := manager.LoadConfig("multi_capture")
//	defaultLayout := manager.GetDefault()
//	all, err := manager.ListConfigs()
package config
