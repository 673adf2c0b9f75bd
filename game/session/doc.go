// Package session keeps the checkers games that are in progress.
//
// A Manager maps short session ids to service.Session values, each holding
// its own engine. Ids are the first eight hex digits of a random UUID and are
// matched case-insensitively.
//
// Locking:
//
// The manager lock only guards the id map. Everything inside a session is
// guarded by that session's own lock, which callers take around any use of
// the engine or the access time. The manager never holds its lock while
// waiting for a session lock.
//
// Persistence:
//
// WithStore attaches a Store. FileStore writes one JSON file per session
// holding the layout id, timestamps, turn count and the position as save file
// lines, so a stored game survives a restart move for move. Sessions missing
// from memory are loaded on first access; Sync drops sessions whose files
// disappeared and loads files that appeared.
//
// Usage:
//
//	store, err := session.NewFileStore("sessions", configManager)
//	if err != nil {
//		return err
//	}
//	manager := session.NewManager(session.WithStore(store), session.WithLogger(logger))
//	sess, err := manager.Create("classic", config)
package session
