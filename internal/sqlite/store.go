package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"trip-planner/internal/store"

	"github.com/labstack/gommon/log"
	_ "modernc.org/sqlite"
)

const (
	DefaultDBFileName = "itinerary.db"
	schemaVersion     = 1
)

// Store is a SQLite-backed implementation of store.Store and store.DestinationReader.
type Store struct {
	db     *sql.DB
	dbPath string
	logger *log.Logger
	// mu serialises write transactions inside this process; SQLite allows one writer at a time.
	mu sync.Mutex
}

var (
	_ store.Store             = (*Store)(nil)
	_ store.DestinationReader = (*Store)(nil)
)

// New opens (or creates) the database at dbPath and initialises the schema.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger := log.New("sqlite")
	logger.Infof("Opening SQLite database at: %s", dbPath)

	dsn := "file:" + dbPath +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// GetDBPath returns the current database file path.
func (s *Store) GetDBPath() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist, create everything
		return s.createSchema()
	}
	if version < schemaVersion {
		_, err := s.db.Exec("UPDATE schema_version SET version = ?", schemaVersion)
		return err
	}
	return nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);
	INSERT INTO schema_version (version) VALUES (1);

	-- Destination catalog (owned by the catalog service, read-only here)
	CREATE TABLE IF NOT EXISTS destinations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		latitude REAL,
		longitude REAL
	);

	CREATE TABLE IF NOT EXISTS routes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		start_date DATETIME,
		end_date DATETIME,
		notes TEXT,
		day_count INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS route_stops (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		route_id INTEGER NOT NULL,
		destination_id INTEGER NOT NULL,
		day_number INTEGER NOT NULL CHECK (day_number > 0),
		order_in_day INTEGER NOT NULL CHECK (order_in_day > 0),
		notes TEXT,
		planned_time TEXT,
		visited INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (route_id) REFERENCES routes(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_routes_user ON routes(user_id, updated_at DESC);
	CREATE INDEX IF NOT EXISTS idx_route_stops_day ON route_stops(route_id, day_number, order_in_day);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	s.logger.Infof("SQLite schema initialized (version %d)", schemaVersion)
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		// Checkpoint WAL before closing
		s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithinTx runs fn inside one immediate transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite.WithinTx begin: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txRepository{tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("sqlite.WithinTx commit: %w", err)
	}
	return nil
}
