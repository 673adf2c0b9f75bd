// Package engine provides the core rule engine for the checkers game.
//
// The engine package implements the game mechanics including:
//   - An 8x8 board that owns every piece and funnels all mutation
//   - Simple move and capture legality for men and kings
//   - Mandatory multi-capture chains with the same piece
//   - Promotion to king and the end-of-turn game over sweep
//   - Snapshot and restore at the persistence boundary
//
// Core Types:
//
// Board holds the pieces. The functions in movement.go form the move
// validator and never mutate anything. GameEngine is the turn controller:
// it consumes one cell activation at a time and settles into either
// AwaitingSelection or GameOver before returning.
//
// Usage:
//
//	config, err := engine.LoadConfigByName("classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.Activate(2, 1) // select the dark piece on (2,1)
//	result := gameEngine.Activate(3, 2)
//	state := gameEngine.GetState()
//
// Game Rules:
//
// Dark starts on rows 0-2 and moves toward row 7, light starts on rows 5-7
// and moves toward row 0. Pieces stand on squares where row+col is odd. A
// selected piece that can capture must capture, and must keep capturing
// while it can. A side that has no move and no capture when its turn begins
// loses the game.
package engine
