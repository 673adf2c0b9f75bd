// Package api provides the HTTP REST API for the checkers server.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session, optionally from a named layout
//   - GET /api/sessions - List sessions (sort, order, limit query parameters)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state as JSON
//   - GET /api/sessions/{id}/board - Text rendering of the board
//   - POST /api/sessions/{id}/activate - Activate a cell: {"row": 2, "col": 1}
//   - POST /api/sessions/{id}/reset - Restore the starting layout
//   - GET /api/sessions/{id}/save - Download the save file
//   - PUT /api/sessions/{id}/save - Replace the board with an uploaded save file (413 above 64 KiB)
//
// Configuration:
//   - GET /api/configs - List starting layouts
//   - GET /api/configs/{name} - Get a layout
//   - POST /api/configs - Validate and store a layout
//
// Archive:
//   - GET /api/games?limit=N - Recently finished games, when an archive is configured
//
// Other:
//   - GET /ws?session={id} - WebSocket feed of state updates for a session
//   - GET /health - Liveness check; reports "degraded" when a registered check such as the archive fails
//
// Errors are returned as {"error": "..."}. Unknown sessions and layouts map
// to 404, malformed bodies and save files to 400, and a missing archive to 503.
// An activation the rules do not allow is not an HTTP error: the response is
// 200 with success=false and the state unchanged.
package api
