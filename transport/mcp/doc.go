// Package mcp exposes the checkers REST API as Model Context Protocol tools.
//
// The Client is a thin proxy: every tool call becomes one or two HTTP
// requests against a running server, and the JSON responses are rendered as
// text an agent can read, including the ASCII board.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, activate, reset_game
//   - export_save, import_save
//   - list_configs, finished_games, game_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
