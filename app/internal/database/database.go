package database

import (
	"database/sql"
	"errors"
	"fmt"

	"statuspage/app/internal/stats"

	_ "modernc.org/sqlite"
)

// DB is the global database instance
var DB *sql.DB

// timeLayout stores heartbeat times as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02 15:04:05.000"

// ErrNotFound is returned by writers that target a missing row.
var ErrNotFound = errors.New("database: not found")

// Init opens the SQLite database at dbPath and creates the schema
func Init(dbPath string) error {
	db, err := Open(dbPath)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open opens a SQLite database and ensures its schema.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dbPath, err)
	}
	// One connection: SQLite has a single writer, and ":memory:" databases
	// exist per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite pragmas: %w", err)
	}
	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

// Store serves status pages, heartbeats and rollups from a SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

var (
	_ stats.StatReader      = (*Store)(nil)
	_ stats.HeartbeatReader = (*Store)(nil)
	_ stats.RollupStore     = (*Store)(nil)
)
