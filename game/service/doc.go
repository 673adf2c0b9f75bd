// Package service provides the business logic layer for the checkers game.
//
// The service package implements:
//   - Multi-session game management
//   - Layout selection when a session is created
//   - Serialized delivery of cell activations to each session's engine
//   - Save file export and import
//   - Recording of finished games through an optional GameRecorder
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages layout loading and validation.
// GameRecorder archives finished games.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. The engine is single-threaded, so every call into a
// session's engine happens under that session's lock. Different sessions
// proceed in parallel.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameService.Activate(ctx, info.ID, 2, 1) // select
//	result, err := gameService.Activate(ctx, info.ID, 3, 2)
package service
