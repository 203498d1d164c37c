package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	_ "modernc.org/sqlite"
)

const dbFileName = "yamireader.db"

// DB wraps the SQLite database connection.
type DB struct {
	conn *sql.DB
	path string
}

// OpenDB opens (or creates) the yamireader SQLite database in the given data directory.
func OpenDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Cache and progress writes come from one reader session at a time; a single
	// connection keeps them serialized.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	db := &DB{conn: conn, path: dbPath}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	_, err := db.conn.Exec("PRAGMA optimize")
	return multierr.Append(err, db.conn.Close())
}

// Conn returns the underlying sql.DB for direct queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

// migrate creates the schema if it doesn't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS page_cache (
		thread_id  TEXT     NOT NULL,
		page       INTEGER  NOT NULL,
		html       TEXT     NOT NULL,
		max_page   INTEGER  NOT NULL DEFAULT 1,
		author_id  TEXT,
		cached_at  DATETIME NOT NULL DEFAULT (datetime('now')),
		PRIMARY KEY (thread_id, page)
	);

	CREATE TABLE IF NOT EXISTS favorites (
		thread_id    TEXT    PRIMARY KEY,
		title        TEXT    NOT NULL DEFAULT '',
		position     INTEGER NOT NULL DEFAULT 0,
		hidden       INTEGER NOT NULL DEFAULT 0,
		last_view    INTEGER NOT NULL DEFAULT 1,
		last_page    INTEGER NOT NULL DEFAULT 0,
		last_chapter TEXT,
		author_id    TEXT,
		updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_favorites_position ON favorites(position);
	`

	_, err := db.conn.Exec(schema)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
