package mapping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const indexSchema = `
CREATE TABLE IF NOT EXISTS entries (
	ord         INTEGER NOT NULL,
	old_id      TEXT    NOT NULL PRIMARY KEY,
	new_id      TEXT    NOT NULL,
	description TEXT    NOT NULL DEFAULT '',
	checksum    TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS entries_new_id ON entries(new_id, ord);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT NOT NULL PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Index is an on-disk mapping keyed by new_id. It serves the same Lookup
// contract as Table for mappings too large to hold in memory.
type Index struct {
	db     *sql.DB
	lookup *sql.Stmt
}

// OpenIndex opens (creating if needed) the SQLite index at path.
func OpenIndex(path string) (*Index, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("index: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("index: open: %w", err)
	}
	// All statements go through one connection so ":memory:" stays one database.
	db.SetMaxOpenConns(1)

	for _, p := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 10000",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("index: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(indexSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index: schema: %w", err)
	}
	stmt, err := db.Prepare(`SELECT old_id, new_id, description, checksum FROM entries WHERE new_id = ? ORDER BY ord`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index: prepare: %w", err)
	}
	return &Index{db: db, lookup: stmt}, nil
}

// Close releases the database.
func (ix *Index) Close() error {
	_ = ix.lookup.Close()
	return ix.db.Close()
}

// Lookup implements Lookup.
func (ix *Index) Lookup(newID string) ([]Entry, error) {
	rows, err := ix.lookup.Query(newID)
	if err != nil {
		return nil, fmt.Errorf("index: lookup %q: %w", newID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.OldID, &e.NewID, &e.Description, &e.Checksum); err != nil {
			return nil, fmt.Errorf("index: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Len returns the number of stored entries.
func (ix *Index) Len() (int, error) {
	var n int
	err := ix.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}

// ImportID returns the id of the last import, or "" for an empty index.
func (ix *Index) ImportID() (string, error) {
	var id string
	err := ix.db.QueryRow(`SELECT value FROM meta WHERE key = 'import_id'`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

// ImportStats describes a completed import.
type ImportStats struct {
	ID      string
	Entries int
}

// Import replaces the index contents with the entries read from r, in one
// transaction. Entries keep their file order for Lookup.
func (ix *Index) Import(ctx context.Context, r *Reader) (ImportStats, error) {
	st := ImportStats{ID: uuid.NewString()}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return st, fmt.Errorf("index: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return st, fmt.Errorf("index: clear: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, `INSERT INTO entries(ord, old_id, new_id, description, checksum)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT(old_id) DO NOTHING`)
	if err != nil {
		return st, fmt.Errorf("index: prepare: %w", err)
	}
	defer func() { _ = ins.Close() }()

	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		e, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return st, err
		}
		res, err := ins.ExecContext(ctx, st.Entries, e.OldID, e.NewID, e.Description, e.Checksum)
		if err != nil {
			return st, fmt.Errorf("index: insert %q: %w", e.OldID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return st, &DuplicateOldIDError{OldID: e.OldID, Pos: r.Pos()}
		}
		st.Entries++
	}

	for k, v := range map[string]string{
		"import_id":   st.ID,
		"imported_at": time.Now().UTC().Format(time.RFC3339),
		"source":      r.source,
	} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			return st, fmt.Errorf("index: meta: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return st, fmt.Errorf("index: commit: %w", err)
	}
	return st, nil
}

// ImportFile imports the mapping TSV at path.
func (ix *Index) ImportFile(ctx context.Context, path string) (ImportStats, error) {
	fh, err := os.Open(path)
	if err != nil {
		return ImportStats{}, err
	}
	defer func() { _ = fh.Close() }()
	return ix.Import(ctx, NewReader(fh, path))
}
