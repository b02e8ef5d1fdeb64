package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrNoDatabase is returned by OpenExisting when path does not exist.
var ErrNoDatabase = errors.New("database not found")

// connParams are go-sqlite3 DSN options applied to every connection the
// driver opens.
const connParams = "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"

// migrations upgrade a database one user_version at a time. Entry i moves a
// database from version i to i+1.
var migrations = []func(*sql.Tx) error{
	// v1: look up sessions by timeline digest.
	func(tx *sql.Tx) error {
		_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_sessions_digest ON sessions(digest)`)
		return err
	},
}

// Store is a session log backed by one SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens the session log at path, creating the file and schema if
// needed and migrating older files to the current version.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?"+connParams)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", path, err)
	}

	// Writes happen once per recorded run; one connection keeps the
	// session and its frame logs on the same writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenExisting is Open for readers: it fails with ErrNoDatabase instead of
// creating an empty log at path.
func OpenExisting(path string) (*Store, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoDatabase, path)
	}
	return Open(path)
}

// Close releases the connection. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for ad hoc queries in tests and tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SchemaVersion reports the database's user_version.
func (s *Store) SchemaVersion() (int, error) {
	return schemaVersion(s.db)
}

func schemaVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return v, nil
}

// migrate applies every migration past the database's user_version, each
// in its own transaction together with the version bump.
func migrate(db *sql.DB) error {
	version, err := schemaVersion(db)
	if err != nil {
		return err
	}
	for v := version; v < len(migrations); v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
		if err := migrations[v](tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
	}
	return nil
}

func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return value, nil
}
