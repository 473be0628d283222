package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/streed/ml-todos/internal/config"
	"github.com/streed/ml-todos/internal/logger"
	"github.com/streed/ml-todos/internal/migrations"
)

// DB owns the process-wide store connection. Open it once at startup and
// Close it at shutdown.
type DB struct {
	conn *sql.DB
	path string
}

func New(ctx context.Context, cfg *config.Config) (*DB, error) {
	return Open(ctx, cfg.GetDatabasePath())
}

func Open(ctx context.Context, path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	logger.Debug("Database path: %s", path)

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.initialize(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

func (db *DB) initialize(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	var version string
	if err := db.conn.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err == nil {
		logger.Debug("SQLite version %s", version)
	}

	if _, err := migrations.NewMigrationRunner(db.conn).RunMigrations(ctx); err != nil {
		return err
	}
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Path() string {
	return db.path
}
