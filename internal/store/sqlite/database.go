package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"streamsalvage/internal/logger"
)

// defaultTimeout bounds individual database operations.
const defaultTimeout = 5 * time.Second

// Database is the durable per-origin store: forensic log entries and
// crowd-sourced alternate URLs survive process restarts.
type Database struct {
	db     *sql.DB
	logger logger.Logger
}

// New opens (or creates) the SQLite database at dbPath and applies the
// schema. The parent directory must already exist and be writable.
func New(ctx context.Context, dbPath string, log logger.Logger) (*Database, error) {
	// WAL keeps concurrent readers cheap; busy_timeout avoids
	// "database is locked" under writer contention.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{db: db, logger: log}
	if err := d.initialize(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	log.Info("sqlite store ready", logger.String("path", dbPath))
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	-- Crowd-sourced alternate URLs, one row per (channel, url).
	CREATE TABLE IF NOT EXISTS alternates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		channel TEXT NOT NULL,
		url TEXT NOT NULL,
		upvotes INTEGER NOT NULL DEFAULT 0,
		downvotes INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		UNIQUE(channel, url)
	);

	CREATE INDEX IF NOT EXISTS idx_alternates_channel ON alternates(channel);

	-- Forensic log: one row per completed resolution, append-only.
	CREATE TABLE IF NOT EXISTS forensic_log (
		id TEXT PRIMARY KEY,
		channel_identity TEXT NOT NULL,
		channel_name TEXT NOT NULL,
		channel_url TEXT NOT NULL,
		verdict TEXT NOT NULL,
		attempts TEXT NOT NULL,
		recommendation TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_forensic_verdict ON forensic_log(verdict);
	CREATE INDEX IF NOT EXISTS idx_forensic_created ON forensic_log(created_at);
	CREATE INDEX IF NOT EXISTS idx_forensic_name ON forensic_log(channel_name COLLATE NOCASE);
	`

	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Ping reports whether the database connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (d *Database) Close() error {
	return d.db.Close()
}
