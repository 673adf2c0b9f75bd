package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wricardo/checkers-game/game/engine"
	"github.com/wricardo/checkers-game/game/savefile"
	"github.com/wricardo/checkers-game/game/service"
)

// Store persists sessions between server runs. Ids passed to a Store are
// already normalized.
type Store interface {
	// Save writes sess. The caller holds the session lock.
	Save(sess *service.Session) error
	Load(id string) (*service.Session, error)
	Delete(id string) error
	List() ([]string, error)
	Exists(id string) bool
}

// Layouts resolves the layout a stored session was started from
type Layouts interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	GetDefault() *engine.GameConfig
}

// record is the on-disk form of a session. Board holds the position as save
// file lines.
type record struct {
	ID             string    `json:"id"`
	Layout         string    `json:"layout,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	Turns          int       `json:"turns"`
	Board          []string  `json:"board"`
}

// FileStore keeps one JSON file per session in a directory
type FileStore struct {
	dir     string
	layouts Layouts
}

// NewFileStore creates dir if needed and returns a store writing into it
func NewFileStore(dir string, layouts Layouts) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &FileStore{dir: dir, layouts: layouts}, nil
}

func (s *FileStore) path(id string) (string, error) {
	if !validID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

// Save writes the session file through a temporary file so readers never
// see a partial record.
func (s *FileStore) Save(sess *service.Session) error {
	path, err := s.path(sess.ID)
	if err != nil {
		return err
	}

	snap := sess.Engine.Snapshot()
	rec := record{
		ID:             sess.ID,
		Layout:         sess.Layout,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Turns:          snap.Turns,
		Board:          strings.Split(strings.TrimSuffix(string(savefile.Marshal(snap)), "\n"), "\n"),
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sess.ID, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load rebuilds a session from its file. The layout is reloaded by id and
// the stored position restored on top of it.
func (s *FileStore) Load(id string) (*service.Session, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}

	config, err := s.layout(rec.Layout)
	if err != nil {
		return nil, err
	}
	snap, err := savefile.Unmarshal([]byte(strings.Join(rec.Board, "\n") + "\n"))
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	snap.Turns = rec.Turns

	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	if err := eng.Restore(snap); err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}

	return &service.Session{
		ID:             id,
		Layout:         rec.Layout,
		Engine:         eng,
		Config:         config,
		CreatedAt:      rec.CreatedAt,
		LastAccessedAt: rec.LastAccessedAt,
	}, nil
}

func (s *FileStore) layout(name string) (*engine.GameConfig, error) {
	if name == "" {
		return s.layouts.GetDefault(), nil
	}
	config, err := s.layouts.LoadConfig(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load layout %q: %w", name, err)
	}
	return config, nil
}

// Delete removes the session file
func (s *FileStore) Delete(id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// List returns the ids of all stored sessions
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		id, ok := strings.CutSuffix(entry.Name(), ".json")
		if entry.IsDir() || !ok || !validID(id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Exists reports whether a file is stored for id
func (s *FileStore) Exists(id string) bool {
	path, err := s.path(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
