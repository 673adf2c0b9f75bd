// Package websocket pushes checkers state updates to browser clients.
//
// A single Hub tracks connections per session. Clients connect to
// /ws?session={id} and receive a state_update message after every change
// made through the REST API, plus a game_over event when a side wins.
// Messages flow one way; anything a client sends is read and discarded so
// that ping/pong keeps working.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run()
//	defer hub.Stop()
//
//	hub.BroadcastToSession(sessionID, state)
package websocket
