package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const currentVersion = 1

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs
// migrations. An unreadable database file is moved aside and replaced
// with a fresh one: the recorded shifts are lost, but the clock must
// come up.
func New(dbPath string) (*Store, error) {
	s, err := open(dbPath)
	if err == nil || dbPath == ":memory:" || !isNotADatabase(err) {
		return s, err
	}

	// Keep the corrupt file next to the database for post-mortems.
	if renameErr := os.Rename(dbPath, dbPath+".corrupt"); renameErr != nil {
		if rmErr := os.Remove(dbPath); rmErr != nil {
			return nil, err
		}
	}
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")
	return open(dbPath)
}

// isNotADatabase reports whether err means the file on disk is not a
// usable SQLite database.
func isNotADatabase(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	code := serr.Code() & 0xff
	return code == sqlite3.SQLITE_NOTADB || code == sqlite3.SQLITE_CORRUPT
}

func open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS employees (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		name  TEXT NOT NULL,
		role  TEXT NOT NULL DEFAULT 'worker'
	);

	CREATE TABLE IF NOT EXISTS projects (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		name     TEXT NOT NULL UNIQUE,
		address  TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS shifts (
		id           TEXT PRIMARY KEY,
		employee_id  INTEGER NOT NULL REFERENCES employees(id),
		project_id   INTEGER NOT NULL REFERENCES projects(id),
		date         TEXT NOT NULL,
		start_ts     TEXT NOT NULL,
		start_lat    REAL,
		start_lng    REAL,
		finish_ts    TEXT,
		finish_lat   REAL,
		finish_lng   REAL,
		notes        TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_employee ON shifts(employee_id);
	CREATE INDEX IF NOT EXISTS idx_shifts_start    ON shifts(start_ts);

	CREATE TABLE IF NOT EXISTS breaks (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		shift_id   TEXT NOT NULL REFERENCES shifts(id),
		start_ts   TEXT NOT NULL,
		start_lat  REAL,
		start_lng  REAL,
		end_ts     TEXT,
		end_lat    REAL,
		end_lng    REAL
	);

	CREATE INDEX IF NOT EXISTS idx_breaks_shift ON breaks(shift_id);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('current_employee', '0'),
		('reminder_morning', '08:55'),
		('reminder_evening', '17:05'),
		('report_time',      '18:00'),
		('report_url',       ''),
		('geo_url',          'http://ip-api.com/json');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/shiftclock/shiftclock.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "shiftclock", "shiftclock.db"), nil
}
