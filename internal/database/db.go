package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Use WAL mode for better concurrency
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{
		conn: conn,
		path: dbPath,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Migrate creates the snapshot and trend tables if they do not exist
func (db *DB) Migrate() error {
	return Migrate(db.conn)
}

// Migrate applies the schema to an arbitrary connection. Exposed so tests
// can run it against in-memory databases.
func Migrate(conn *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS stock_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			market TEXT NOT NULL DEFAULT 'US',
			date TEXT NOT NULL,
			price REAL NOT NULL,
			value_score REAL,
			sentiment_score REAL,
			money_flow_strength REAL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_date
			ON stock_snapshots(symbol, date)`,
		`CREATE TABLE IF NOT EXISTS option_combos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id INTEGER NOT NULL REFERENCES stock_snapshots(id) ON DELETE CASCADE,
			combo_id TEXT NOT NULL,
			strategy TEXT NOT NULL,
			notional REAL NOT NULL,
			risk_profile TEXT NOT NULL,
			leg_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sector_stats (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sector TEXT NOT NULL,
			date TEXT NOT NULL,
			stock_count INTEGER NOT NULL,
			avg_change REAL NOT NULL,
			total_volume INTEGER NOT NULL,
			leader_symbol TEXT,
			leader_change REAL,
			rank INTEGER NOT NULL,
			UNIQUE(sector, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sector_stats_date ON sector_stats(date)`,
	}

	for _, stmt := range statements {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Begin starts a new transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// Exec executes a query without returning rows
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}
