// Package store persists scheduling runs: the configuration a run was
// invoked with, and a summary of its outcome, so a caller can look up
// "what did run X produce" after the fact. It follows the teacher's
// connect-or-fallback shape: a failed Postgres connection degrades to
// an in-memory store rather than aborting startup.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/qlp-hq/production-scheduler/internal/logger"
)

// Database wraps a connection pool that may be nil, in which case
// every repository built on top of it falls back to an in-memory map.
type Database struct {
	conn *sql.DB
}

// New opens a Postgres connection pool at dsn. A failed connection is
// logged and degrades to fallback mode rather than returning an error:
// a scheduling run should never fail to start because the run-history
// store is unreachable.
func New(dsn string) (*Database, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		logger.Logger.Warn("run store connection failed, using in-memory fallback", zap.Error(err))
		return &Database{conn: nil}, nil
	}

	logger.Logger.Info("connected to run store")
	return &Database{conn: conn}, nil
}

func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

func (db *Database) IsConnected() bool {
	return db.conn != nil
}
