// Package storage implements the persistence layer on a hosted Turso/libsql
// database, with a local SQLite fallback for development and tests.
package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"                      // SQLite driver
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
)

// Config selects the database backend. When a Turso URL and token are set the
// store connects to the hosted database; otherwise it falls back to a local
// SQLite file.
type Config struct {
	TursoURL   string
	TursoToken string
	SQLitePath string
}

// Store implements service.Storage over database/sql.
type Store struct {
	db       *sql.DB
	logger   *slog.Logger
	useTurso bool
}

// NewStore opens a database connection per the config. Turso is tried first
// if configured; a failed ping falls through to SQLite rather than erroring,
// so a dev box without network keeps working.
func NewStore(cfg Config) (*Store, error) {
	var conn *sql.DB
	var useTurso bool

	logger := slog.Default().With("component", "storage")

	if cfg.TursoURL != "" && cfg.TursoToken != "" {
		connStr := cfg.TursoURL + "?authToken=" + cfg.TursoToken
		db, err := sql.Open("libsql", connStr)
		if err == nil {
			if pingErr := db.Ping(); pingErr == nil {
				conn = db
				useTurso = true
			} else {
				logger.Warn("Turso ping failed, falling back to SQLite", "error", pingErr)
				_ = db.Close()
			}
		}
	}

	if conn == nil {
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("no Turso credentials and no SQLite path configured")
		}

		dir := filepath.Dir(cfg.SQLitePath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		db, err := sql.Open("sqlite3", cfg.SQLitePath+"?_journal_mode=WAL&_busy_timeout=5000")
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		// SQLite doesn't benefit from multiple connections.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)

		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		conn = db
	}

	logger.Info("Database connected", "backend", backendName(useTurso))

	return &Store{
		db:       conn,
		logger:   logger,
		useTurso: useTurso,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// BackendInfo describes the active database backend, for the health endpoint.
func (s *Store) BackendInfo() string {
	return backendName(s.useTurso)
}

func backendName(useTurso bool) string {
	if useTurso {
		return "turso"
	}
	return "sqlite"
}
