package storedb

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps containers in a SQLite database instead of loose
// files. Each named container keeps its full write history; reads
// return the most recent write for the name. The path argument of the
// ContainerStore interface acts as the container name here.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) the container table
// in the SQLite database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening container database %s: %w", dbPath, err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS containers (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			name     TEXT NOT NULL,
			payload  BLOB NOT NULL,
			saved_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_containers_name ON containers(name, id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing container table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) WriteContainer(name string, blob []byte) error {
	_, err := s.db.Exec(`INSERT INTO containers (name, payload) VALUES (?, ?)`, name, blob)
	if err != nil {
		return fmt.Errorf("storing container %q: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) ReadContainer(name string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRow(
		`SELECT payload FROM containers WHERE name = ? ORDER BY id DESC LIMIT 1`, name,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no container named %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading container %q: %w", name, err)
	}
	return blob, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
