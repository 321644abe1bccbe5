package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite keeps the state document in a single-row key/value table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file and ensures the table exists.
func OpenSQLite(file string) (*SQLite, error) {
	db, err := sql.Open("sqlite", getConnectionString(file))
	if err != nil {
		return nil, err
	}
	if err := ensureTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func getConnectionString(file string) string {
	busyTimeoutMs := 2000
	qs := url.Values{
		"_txlock": []string{"immediate"},
		"_pragma": []string{
			"journal_mode(WAL)",
			fmt.Sprintf("busy_timeout(%d)", busyTimeoutMs),
		},
	}

	return "file:" + file + "?" + qs.Encode()
}

func ensureTable(db *sql.DB) error {
	_, err := db.ExecContext(context.TODO(),
		`CREATE TABLE IF NOT EXISTS state (
			key TEXT NOT NULL PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		) WITHOUT ROWID;`,
	)
	return err
}

// Load returns the saved state, or nil if there is none.
func (s *SQLite) Load(ctx context.Context) (*State, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, StateKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return decodeState(data)
}

// Save replaces the saved state.
func (s *SQLite) Save(ctx context.Context, state *State) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		StateKey, data, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
