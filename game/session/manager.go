package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/checkers-game/game/engine"
	"github.com/wricardo/checkers-game/game/service"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSessionID = errors.New("invalid session ID")
)

const (
	idLength      = 8
	maxIDLength   = 64
	maxIDAttempts = 16
)

// Manager tracks the sessions in progress
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*service.Session
	store    Store
	logger   *zap.SugaredLogger
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the manager logger
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithStore persists sessions through store
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// NewManager creates a session manager. Without WithStore sessions only live
// in memory.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
		logger:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// key normalizes a session id for lookups.
func key(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// validID reports whether a normalized id is safe to use as a file name.
func validID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:idLength]
}

// Create starts a session playing config. layout is the config id the
// session was started from, empty for the default layout.
func (m *Manager) Create(layout string, config *engine.GameConfig) (*service.Session, error) {
	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	now := time.Now()
	sess := &service.Session{
		Layout:         layout,
		Engine:         eng,
		Config:         config,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	m.mu.Lock()
	id, err := m.freshIDLocked()
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	sess.ID = id
	m.sessions[id] = sess
	m.mu.Unlock()

	sess.Lock()
	err = m.Save(sess)
	sess.Unlock()
	if err != nil {
		m.logger.Warnw("failed to persist new session", "session_id", id, "error", err)
	}
	return sess, nil
}

func (m *Manager) freshIDLocked() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := newID()
		if _, taken := m.sessions[id]; taken {
			continue
		}
		if m.store != nil && m.store.Exists(id) {
			continue
		}
		return id, nil
	}
	return "", errors.New("could not allocate a session ID")
}

// Get returns the session with id, loading it from the store when it is not
// in memory.
func (m *Manager) Get(id string) (*service.Session, error) {
	k := key(id)
	if !validID(k) {
		return nil, fmt.Errorf("%w: %w", ErrSessionNotFound, ErrInvalidSessionID)
	}

	m.mu.RLock()
	sess, ok := m.sessions[k]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}

	if m.store == nil {
		return nil, ErrSessionNotFound
	}
	sess, err := m.store.Load(k)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}
	return m.adopt(sess), nil
}

// adopt caches a loaded session unless a concurrent load got there first.
func (m *Manager) adopt(sess *service.Session) *service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[sess.ID]; ok {
		return existing
	}
	m.sessions[sess.ID] = sess
	return sess
}

// List returns the sessions in memory
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

// Delete ends a session in memory and in the store
func (m *Manager) Delete(id string) error {
	k := key(id)

	m.mu.Lock()
	defer m.mu.Unlock()

	_, inMemory := m.sessions[k]
	delete(m.sessions, k)

	if m.store != nil && validID(k) {
		err := m.store.Delete(k)
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, ErrSessionNotFound):
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
	}
	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// Save writes sess to the store. The caller holds the session lock.
func (m *Manager) Save(sess *service.Session) error {
	if m.store == nil {
		return nil
	}
	return m.store.Save(sess)
}

// CleanupExpiredSessions ends sessions idle for longer than maxAge and
// returns how many it removed.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, sess := range m.List() {
		sess.Lock()
		idle := sess.LastAccessedAt.Before(cutoff)
		sess.Unlock()
		if !idle {
			continue
		}
		if err := m.Delete(sess.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			m.logger.Warnw("failed to remove expired session", "session_id", sess.ID, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		m.logger.Infow("removed expired sessions", "count", removed, "max_age", maxAge)
	}
	return removed
}

// Count returns the number of sessions in memory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// LoadPersistedSessions loads every stored session that is not in memory yet
func (m *Manager) LoadPersistedSessions() error {
	if m.store == nil {
		return nil
	}

	ids, err := m.store.List()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	loaded := 0
	for _, id := range ids {
		m.mu.RLock()
		_, ok := m.sessions[id]
		m.mu.RUnlock()
		if ok {
			continue
		}

		sess, err := m.store.Load(id)
		if err != nil {
			m.logger.Warnw("failed to load persisted session", "session_id", id, "error", err)
			continue
		}
		m.adopt(sess)
		loaded++
	}

	if loaded > 0 {
		m.logger.Infow("loaded persisted sessions", "count", loaded)
	}
	return nil
}

// SaveAllSessions writes every session in memory to the store
func (m *Manager) SaveAllSessions() error {
	if m.store == nil {
		return nil
	}

	failed := 0
	for _, sess := range m.List() {
		sess.Lock()
		err := m.store.Save(sess)
		sess.Unlock()
		if err != nil {
			m.logger.Warnw("failed to save session", "session_id", sess.ID, "error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to save %d sessions", failed)
	}
	return nil
}

// Sync drops sessions whose stored file was removed outside the server and
// loads files that appeared.
func (m *Manager) Sync() error {
	if m.store == nil {
		return nil
	}

	listed := time.Now()
	ids, err := m.store.List()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}
	stored := make(map[string]bool, len(ids))
	for _, id := range ids {
		stored[id] = true
	}

	m.mu.Lock()
	dropped := 0
	for id, sess := range m.sessions {
		// Sessions created after the listing may not be written yet.
		if !stored[id] && sess.CreatedAt.Before(listed) {
			delete(m.sessions, id)
			dropped++
		}
	}
	m.mu.Unlock()

	if dropped > 0 {
		m.logger.Infow("dropped sessions missing from storage", "count", dropped)
	}
	return m.LoadPersistedSessions()
}
