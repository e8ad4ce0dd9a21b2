package cache

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps entries in a single-file database, so cached sweeps
// survive across invocations.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("cache: sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS results (
			key TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	if err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Put(ctx context.Context, key Key, entry Entry) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	if entry.SchemaVersion == 0 {
		entry.SchemaVersion = CurrentSchemaVersion
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO results (key, schema_version, created_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			schema_version = excluded.schema_version,
			created_at = excluded.created_at,
			payload = excluded.payload
	`, key.String(), entry.SchemaVersion, entry.CreatedAt.Format(time.RFC3339Nano), entry.Payload)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Entry{}, false, err
	}

	var (
		version   int
		createdAt string
		payload   []byte
	)
	err = db.QueryRowContext(ctx,
		`SELECT schema_version, created_at, payload FROM results WHERE key = ?`,
		key.String()).Scan(&version, &createdAt, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	if version != CurrentSchemaVersion {
		return Entry{}, false, nil
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Entry{}, false, err
	}
	return Entry{SchemaVersion: version, CreatedAt: ts, Payload: payload}, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("cache: store is not initialized")
	}
	return s.db, nil
}
