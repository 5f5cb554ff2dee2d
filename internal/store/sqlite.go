// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const (
	indexDir = "index"
	dbFile   = "tags.db"
)

// sqliteBackend stores each tree as a two-column table.
type sqliteBackend struct {
	db *sql.DB
}

func openSQLite(dataDir string) (*sqliteBackend, error) {
	dbDir := filepath.Join(dataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Single writer per process.
	db.SetMaxOpenConns(1)

	b := &sqliteBackend{db: db}
	if err := b.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return b, nil
}

func (b *sqliteBackend) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS files (
			key BLOB PRIMARY KEY,
			value BLOB NOT NULL
		) WITHOUT ROWID`,
		`CREATE TABLE IF NOT EXISTS tags (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL
		) WITHOUT ROWID`,
	}
	for _, stmt := range statements {
		if _, err := b.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (b *sqliteBackend) begin(bool) (txn, error) {
	tx, err := b.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &sqliteTxn{tx: tx}, nil
}

func (b *sqliteBackend) flush() error {
	var busy, logFrames, checkpointed int
	err := b.db.QueryRow(`PRAGMA wal_checkpoint(FULL)`).Scan(&busy, &logFrames, &checkpointed)
	if err != nil {
		return fmt.Errorf("checkpointing WAL: %w", err)
	}
	if busy != 0 {
		return fmt.Errorf("checkpointing WAL: database busy")
	}
	return nil
}

func (b *sqliteBackend) close() error {
	return b.db.Close()
}

type sqliteTxn struct {
	tx   *sql.Tx
	done bool
}

// keyArg binds tag keys as TEXT and file keys as raw BLOBs.
func keyArg(t tree, key []byte) any {
	if t == tagsTree {
		return string(key)
	}
	return key
}

func (x *sqliteTxn) get(t tree, key []byte) ([]byte, bool, error) {
	var value []byte
	err := x.tx.QueryRow(`SELECT value FROM `+string(t)+` WHERE key = ?`, keyArg(t, key)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s entry: %w", t, err)
	}
	return value, true, nil
}

func (x *sqliteTxn) put(t tree, key, value []byte) error {
	_, err := x.tx.Exec(
		`INSERT INTO `+string(t)+` (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		keyArg(t, key), value,
	)
	if err != nil {
		return fmt.Errorf("writing %s entry: %w", t, err)
	}
	return nil
}

func (x *sqliteTxn) delete(t tree, key []byte) (bool, error) {
	res, err := x.tx.Exec(`DELETE FROM `+string(t)+` WHERE key = ?`, keyArg(t, key))
	if err != nil {
		return false, fmt.Errorf("deleting %s entry: %w", t, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting %s entry: %w", t, err)
	}
	return n > 0, nil
}

func (x *sqliteTxn) scan(t tree, prefix []byte, fn func(key, value []byte) error) error {
	var (
		rows *sql.Rows
		err  error
	)
	if len(prefix) == 0 {
		rows, err = x.tx.Query(`SELECT key, value FROM ` + string(t) + ` ORDER BY key`)
	} else {
		rows, err = x.tx.Query(
			`SELECT key, value FROM `+string(t)+` WHERE key >= ? ORDER BY key`,
			keyArg(t, prefix),
		)
	}
	if err != nil {
		return fmt.Errorf("scanning %s: %w", t, err)
	}

	// Buffer the rows so fn may write through the same transaction.
	type kv struct{ key, value []byte }
	var entries []kv
	for rows.Next() {
		var e kv
		if err := rows.Scan(&e.key, &e.value); err != nil {
			rows.Close()
			return fmt.Errorf("scanning %s row: %w", t, err)
		}
		if !bytes.HasPrefix(e.key, prefix) {
			break
		}
		entries = append(entries, e)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("scanning %s: %w", t, err)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scanning %s: %w", t, err)
	}

	for _, e := range entries {
		if err := fn(e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}

func (x *sqliteTxn) count(t tree) (int, error) {
	var n int
	if err := x.tx.QueryRow(`SELECT count(*) FROM ` + string(t)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", t, err)
	}
	return n, nil
}

func (x *sqliteTxn) clear(t tree) error {
	if _, err := x.tx.Exec(`DELETE FROM ` + string(t)); err != nil {
		return fmt.Errorf("clearing %s: %w", t, err)
	}
	return nil
}

func (x *sqliteTxn) commit() error {
	x.done = true
	if err := x.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (x *sqliteTxn) rollback() error {
	if x.done {
		return nil
	}
	x.done = true
	return x.tx.Rollback()
}
