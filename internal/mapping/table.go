// Package mapping holds the old-id/new-id association produced by encoding
// and consumed by decoding, together with its TSV codec and an optional
// SQLite-backed index.
package mapping

import (
	"fmt"

	"seqrenamer/internal/record"
)

// Entry is one old_id -> new_id association.
type Entry struct {
	OldID       string
	NewID       string
	Description string
	Checksum    string // empty unless deduplication was used
}

// Lookup resolves an encoded id to every entry that produced it, in the
// order the entries were appended.
type Lookup interface {
	Lookup(newID string) ([]Entry, error)
}

// DuplicateOldIDError is returned when an old id is added twice.
type DuplicateOldIDError struct {
	OldID string
	Pos   record.Pos
}

func (e *DuplicateOldIDError) Error() string {
	if e.Pos == (record.Pos{}) {
		return fmt.Sprintf("duplicate old id %q in mapping", e.OldID)
	}
	return fmt.Sprintf("%s: duplicate old id %q in mapping", e.Pos, e.OldID)
}

// Table is an append-only, in-memory mapping with both indices.
// Once built for decoding it is only read.
type Table struct {
	entries []Entry
	byOld   map[string]int
	byNew   map[string][]int
}

func NewTable() *Table {
	return &Table{byOld: map[string]int{}, byNew: map[string][]int{}}
}

// Append adds e. It fails if e.OldID is already present.
func (t *Table) Append(e Entry) error {
	if _, ok := t.byOld[e.OldID]; ok {
		return &DuplicateOldIDError{OldID: e.OldID}
	}
	i := len(t.entries)
	t.entries = append(t.entries, e)
	t.byOld[e.OldID] = i
	t.byNew[e.NewID] = append(t.byNew[e.NewID], i)
	return nil
}

func (t *Table) Len() int { return len(t.entries) }

// Entries returns the entries in append order. The slice must not be modified.
func (t *Table) Entries() []Entry { return t.entries }

// ByOldID returns the entry recorded for an original id.
func (t *Table) ByOldID(oldID string) (Entry, bool) {
	i, ok := t.byOld[oldID]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// ByNewID returns every entry encoded as newID, in append order.
func (t *Table) ByNewID(newID string) []Entry {
	idx := t.byNew[newID]
	if len(idx) == 0 {
		return nil
	}
	out := make([]Entry, len(idx))
	for k, i := range idx {
		out[k] = t.entries[i]
	}
	return out
}

// NewIDs returns the number of distinct encoded ids.
func (t *Table) NewIDs() int { return len(t.byNew) }

// Lookup implements Lookup.
func (t *Table) Lookup(newID string) ([]Entry, error) { return t.ByNewID(newID), nil }
