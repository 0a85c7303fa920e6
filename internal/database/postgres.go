// Package database provides PostgreSQL connectivity and the persistence
// layer for submissions, published mappings and admins.
package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/simonhust/trailer/internal/config"
	"github.com/simonhust/trailer/internal/logger"
)

// DefaultPingTimeout is the timeout for the initial connection check.
const DefaultPingTimeout = 5 * time.Second

// Connect opens a PostgreSQL connection and verifies it with a ping.
func Connect(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	return db, nil
}

// Store owns the database handle and the background heartbeat task.
// All repositories share its connection.
type Store struct {
	db  *sqlx.DB
	log logger.Logger

	heartbeat *Heartbeat
	closeOnce sync.Once
	closeErr  error
}

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB, log logger.Logger) *Store {
	return &Store{db: db, log: log}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// StartHeartbeat launches the liveness writer with the given interval.
// It fires an immediate beat before the first tick.
func (s *Store) StartHeartbeat(interval time.Duration, onFailure func()) {
	if s.heartbeat != nil {
		return
	}
	s.heartbeat = NewHeartbeat(s.db, s.log, interval, onFailure)
	s.heartbeat.Start()
}

// Close stops the heartbeat task and releases the connection. It is safe
// to call multiple times and when the heartbeat was never started.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.heartbeat != nil {
			s.heartbeat.Stop()
		}
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}
