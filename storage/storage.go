package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const (
	writeQueueSize  = 1000
	shutdownTimeout = 2 * time.Second
)

var (
	// ErrStoreDegraded reports that a write failed and later writes are dropped
	ErrStoreDegraded = errors.New("game archive is degraded")
	// ErrStoreClosed is returned by Flush after Close
	ErrStoreClosed = errors.New("game archive is closed")
)

// writeOp is one queued write. A barrier has no fn and only signals done
// once everything queued before it was handled.
type writeOp struct {
	what string
	fn   func(*sql.Tx) error
	done chan struct{}
}

// Store archives finished games in SQLite. Writes are queued and applied by
// a single writer goroutine; reads go straight to the database.
type Store struct {
	db           *sql.DB
	path         string
	writeChan    chan writeOp
	stopped      chan struct{}
	healthStatus atomic.Bool
	logger       *zap.SugaredLogger
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewStore opens the database, creates the schema and starts the writer
func NewStore(dataSourceName string, logger *zap.SugaredLogger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		db:        db,
		path:      dataSourceName,
		writeChan: make(chan writeOp, writeQueueSize),
		stopped:   make(chan struct{}),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
	s.healthStatus.Store(true)

	if err := s.InitDB(); err != nil {
		cancel()
		db.Close()
		return nil, err
	}

	// Start async writer
	s.wg.Add(1)
	go s.writerLoop()

	return s, nil
}

// IsHealthy returns true if the storage is operational
func (s *Store) IsHealthy() bool {
	return s.healthStatus.Load()
}

// writerLoop processes async write operations
func (s *Store) writerLoop() {
	defer s.wg.Done()
	defer close(s.stopped)

	for {
		select {
		case <-s.ctx.Done():
			// Drain queued writes
			for {
				select {
				case op := <-s.writeChan:
					s.handle(op)
				default:
					return
				}
			}

		case op := <-s.writeChan:
			s.handle(op)
		}
	}
}

// handle applies op unless the store is degraded. Barriers always complete.
func (s *Store) handle(op writeOp) {
	if op.done != nil {
		close(op.done)
	}
	if op.fn != nil && s.healthStatus.Load() {
		s.executeWrite(op)
	}
}

// executeWrite runs a transactional write operation
func (s *Store) executeWrite(op writeOp) {
	tx, err := s.db.Begin()
	if err != nil {
		s.degrade(op, "failed to begin transaction", err)
		return
	}

	if err := op.fn(tx); err != nil {
		tx.Rollback()
		s.degrade(op, "write operation failed", err)
		return
	}

	if err := tx.Commit(); err != nil {
		s.degrade(op, "failed to commit", err)
	}
}

func (s *Store) degrade(op writeOp, msg string, err error) {
	s.logger.Errorw("storage degraded: "+msg, "write", op.what, "path", s.path, "error", err)
	s.healthStatus.Store(false)
}

// enqueue hands fn to the writer, dropping it when the queue is full
func (s *Store) enqueue(what string, fn func(*sql.Tx) error) {
	if !s.healthStatus.Load() {
		return // Silently drop if degraded
	}

	select {
	case s.writeChan <- writeOp{what: what, fn: fn}:
	default:
		s.logger.Warnw("storage write queue full, dropping write", "write", what, "path", s.path)
	}
}

// Flush blocks until every write queued before the call has been handled.
// It returns ErrStoreDegraded when writes were dropped and ErrStoreClosed
// once the writer has stopped.
func (s *Store) Flush(ctx context.Context) error {
	if s.ctx.Err() != nil {
		return ErrStoreClosed
	}

	done := make(chan struct{})
	select {
	case s.writeChan <- writeOp{what: "flush", done: done}:
	case <-s.stopped:
		return ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
	case <-s.stopped:
		// The writer drains the queue before stopping, so done may have
		// been closed on the way out.
		select {
		case <-done:
		default:
			return ErrStoreClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	if !s.healthStatus.Load() {
		return ErrStoreDegraded
	}
	return nil
}

// Close gracefully closes the database connection
func (s *Store) Close() error {
	// Signal writer to stop
	s.cancel()

	// Wait for writer with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		s.logger.Warn("storage writer shutdown timeout, some writes may be lost")
	}

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitDB creates the database schema
func (s *Store) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return tx.Commit()
}
