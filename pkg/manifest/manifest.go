// Package manifest keeps a SQLite ledger of batch outcomes: one row per
// requested item, upserted on re-runs. It records what happened, not the
// content itself — downloaded filings are never cached here.
package manifest

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database holding the outcome ledger.
type DB struct {
	conn *sql.DB
}

// Entry is one recorded batch item.
type Entry struct {
	Key      string
	Ticker   string
	Form     string
	FileName string
	OK       bool
	Reason   string
}

// Open opens (or creates) the ledger database at path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) createTables() error {
	outcomesSQL := `
		CREATE TABLE IF NOT EXISTS outcomes (
			key TEXT PRIMARY KEY,
			ticker TEXT NOT NULL,
			form TEXT NOT NULL,
			file_name TEXT DEFAULT '',
			ok INTEGER NOT NULL,
			reason TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := db.conn.Exec(outcomesSQL); err != nil {
		return fmt.Errorf("failed to create outcomes table: %w", err)
	}

	indexSQL := `CREATE INDEX IF NOT EXISTS idx_outcomes_ticker ON outcomes(ticker);`
	if _, err := db.conn.Exec(indexSQL); err != nil {
		return fmt.Errorf("failed to create ticker index: %w", err)
	}
	return nil
}

// Record upserts an entry by key.
func (db *DB) Record(e Entry) error {
	query := `
		INSERT OR REPLACE INTO outcomes (key, ticker, form, file_name, ok, reason, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	ok := 0
	if e.OK {
		ok = 1
	}
	if _, err := db.conn.Exec(query, e.Key, e.Ticker, e.Form, e.FileName, ok, e.Reason); err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	return nil
}

// Recent returns the most recently updated entries, newest first.
func (db *DB) Recent(limit int) ([]Entry, error) {
	query := `
		SELECT key, ticker, form, file_name, ok, reason
		FROM outcomes
		ORDER BY updated_at DESC, key
		LIMIT ?
	`
	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ok int
		if err := rows.Scan(&e.Key, &e.Ticker, &e.Form, &e.FileName, &ok, &e.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan outcome row: %w", err)
		}
		e.OK = ok == 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Failures returns the keys of entries whose last run failed, for
// re-invoking a batch over the failed subset.
func (db *DB) Failures() ([]string, error) {
	rows, err := db.conn.Query(`SELECT key FROM outcomes WHERE ok = 0 ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan failure row: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
