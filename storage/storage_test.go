package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/wricardo/checkers-game/game/engine"
	"github.com/wricardo/checkers-game/game/service"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "games.db"), nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RecordAndListGames(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	records := []*service.GameRecord{
		{SessionID: "ab12", ConfigName: "classic", Winner: engine.Dark, Turns: 40, DarkRemaining: 3, FinalPosition: engine.StandardLayout(), FinishedAt: base},
		{SessionID: "cd34", ConfigName: "kings_endgame", Winner: engine.Light, Turns: 12, LightRemaining: 2, FinalPosition: engine.StandardLayout(), FinishedAt: base.Add(time.Hour)},
	}
	for _, rec := range records {
		if err := store.RecordGame(ctx, rec); err != nil {
			t.Fatalf("RecordGame failed: %v", err)
		}
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	games, err := store.ListGames(ctx, 10)
	if err != nil {
		t.Fatalf("ListGames failed: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("Expected 2 games, got %d", len(games))
	}
	if games[0].SessionID != "cd34" {
		t.Errorf("Expected most recent game first, got %s", games[0].SessionID)
	}
	if games[0].Winner != engine.Light || games[0].Turns != 12 {
		t.Errorf("Unexpected record %+v", games[0])
	}
	if games[1].ID == "" {
		t.Error("Expected a generated game id")
	}
	if len(games[1].FinalPosition) != engine.BoardSize || games[1].FinalPosition[0] != ".d.d.d.d" {
		t.Errorf("Final position not preserved: %v", games[1].FinalPosition)
	}

	limited, err := store.ListGames(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("ListGames(1) = %d games, %v", len(limited), err)
	}

	bySession, err := store.QueryGames(ctx, "ab12", 0)
	if err != nil || len(bySession) != 1 || bySession[0].Winner != engine.Dark {
		t.Errorf("QueryGames(ab12) = %+v, %v", bySession, err)
	}

	if !store.IsHealthy() {
		t.Error("Store should be healthy")
	}
}

func TestStore_RecordGameValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordGame(ctx, nil); err == nil {
		t.Error("Expected error for nil record")
	}
	if err := store.RecordGame(ctx, &service.GameRecord{SessionID: "x"}); err == nil {
		t.Error("Expected error for record without winner")
	}
}

func TestStore_ImplementsRecorder(t *testing.T) {
	var _ service.GameRecorder = (*Store)(nil)
}

func TestStore_FlushWhenDegraded(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store.enqueue("broken", func(tx *sql.Tx) error {
		return errors.New("disk on fire")
	})
	if err := store.Flush(ctx); !errors.Is(err, ErrStoreDegraded) {
		t.Fatalf("Flush after a failed write = %v, want ErrStoreDegraded", err)
	}
	if store.IsHealthy() {
		t.Error("store should report degraded")
	}

	// Writes are now dropped but Flush still returns promptly.
	store.RecordGame(ctx, &service.GameRecord{SessionID: "ab12", Winner: engine.Dark})
	if err := store.Flush(ctx); !errors.Is(err, ErrStoreDegraded) {
		t.Errorf("second Flush = %v, want ErrStoreDegraded", err)
	}
}

func TestStore_FlushAfterClose(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "games.db"), nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Flush(ctx); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Flush after Close = %v, want ErrStoreClosed", err)
	}
}
