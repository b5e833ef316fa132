// Package encode assigns compact replacement ids to a record stream and
// records every substitution in a mapping.
//
// One Encoder serves one run: it owns its id generator, its checksum table
// and the append-only mapping, and nothing outlives it.
package encode

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"seqrenamer/internal/fingerprint"
	"seqrenamer/internal/idgen"
	"seqrenamer/internal/mapping"
	"seqrenamer/internal/record"
)

// Options control an encode run.
type Options struct {
	Mode            record.Mode
	Deduplicate     bool
	DropDescription bool
	Normalize       fingerprint.Options
	Checksum        fingerprint.Func // nil means SEGUID
}

// Sink receives mapping entries in arrival order.
type Sink interface {
	Write(e mapping.Entry) error
}

// Stats summarize a run.
type Stats struct {
	Read       int // non-verbatim records read
	Emitted    int // records written to the output stream
	Entries    int // mapping entries written
	Duplicates int // records suppressed as duplicate content
}

// Encoder rewrites ids. It is not safe for concurrent use.
type Encoder struct {
	opts  Options
	gen   *idgen.Generator
	sink  Sink
	log   *slog.Logger
	table *mapping.Table

	byChecksum map[string]string
	emitted    map[string]bool
}

// New returns an Encoder drawing ids from gen and writing entries to sink.
// sink may be nil when only the in-memory table is wanted.
func New(opts Options, gen *idgen.Generator, sink Sink, log *slog.Logger) *Encoder {
	if opts.Checksum == nil {
		opts.Checksum = fingerprint.Seguid
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Encoder{
		opts:       opts,
		gen:        gen,
		sink:       sink,
		log:        log,
		table:      mapping.NewTable(),
		byChecksum: map[string]string{},
		emitted:    map[string]bool{},
	}
}

// Table returns the mapping built so far.
func (e *Encoder) Table() *mapping.Table { return e.table }

// Encode reads src to the end, writing rewritten records to dst. It stops at
// the first error; records already written stay written.
func (e *Encoder) Encode(ctx context.Context, src record.Reader, dst record.Writer) (Stats, error) {
	var st Stats
	err := record.ForEach(src, func(rec record.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if record.IsVerbatim(rec) {
			return dst.Write(rec)
		}
		st.Read++

		emit, err := e.encodeOne(rec, &st)
		if err != nil || !emit {
			return err
		}
		st.Emitted++
		return dst.Write(rec)
	})
	st.Entries = e.table.Len()
	e.log.Info("encode finished",
		"records", st.Read, "emitted", st.Emitted,
		"entries", st.Entries, "new_ids", e.table.NewIDs(), "duplicates", st.Duplicates)
	return st, err
}

// encodeOne rewrites rec in place and reports whether it should be emitted.
func (e *Encoder) encodeOne(rec record.Record, st *Stats) (bool, error) {
	if e.opts.Mode == record.ModeGFF3ID {
		if f, ok := rec.(record.Feature); ok {
			return true, e.encodeFeature(f)
		}
	}

	seq, isSeq := rec.(record.Sequence)
	if isSeq && !e.opts.Normalize.IsZero() {
		seq.SetPayload(fingerprint.Normalize(seq.Payload(), e.opts.Normalize))
	}

	oldID := rec.ID()
	if oldID == "" {
		return true, nil
	}
	if err := checkID(oldID, rec.Pos()); err != nil {
		return false, err
	}
	desc := rec.Description()
	if e.opts.DropDescription {
		rec.SetDescription("")
	}

	var checksum string
	dedup := e.opts.Deduplicate && isSeq
	if dedup {
		// payload is already normalized above
		checksum = e.opts.Checksum(seq.Payload())
	}

	if prev, ok := e.table.ByOldID(oldID); ok {
		if dedup && prev.Checksum != checksum {
			return false, &mapping.DuplicateOldIDError{OldID: oldID, Pos: rec.Pos()}
		}
		rec.SetID(prev.NewID)
		return e.admit(prev.NewID, dedup, st), nil
	}

	var newID string
	if dedup {
		newID = e.byChecksum[checksum]
	}
	if newID == "" {
		id, err := e.gen.Next()
		if err != nil {
			return false, fmt.Errorf("%s: %w", rec.Pos(), err)
		}
		newID = id
		if dedup {
			e.byChecksum[checksum] = newID
		}
	}
	if err := e.record(mapping.Entry{OldID: oldID, NewID: newID, Description: desc, Checksum: checksum}, rec.Pos()); err != nil {
		return false, err
	}
	rec.SetID(newID)
	return e.admit(newID, dedup, st), nil
}

// admit marks newID as emitted and reports whether this record is its first
// occurrence. Without deduplication every record is admitted.
func (e *Encoder) admit(newID string, dedup bool, st *Stats) bool {
	if dedup && e.emitted[newID] {
		st.Duplicates++
		e.log.Debug("duplicate content suppressed", "new_id", newID)
		return false
	}
	e.emitted[newID] = true
	return true
}

// encodeFeature rewrites the ID attribute and every Parent token through the
// same old-id table, so parents and children stay linked.
func (e *Encoder) encodeFeature(f record.Feature) error {
	attrs := f.Attributes()
	for i, a := range attrs {
		switch a.Key {
		case "ID":
			if a.Value == "" {
				continue
			}
			id, err := e.assign(a.Value, f.Pos())
			if err != nil {
				return err
			}
			attrs[i].Value = id
		case "Parent":
			tokens := strings.Split(a.Value, ",")
			for k, tok := range tokens {
				lead, core, trail := record.SplitToken(tok)
				if core == "" {
					continue
				}
				id, err := e.assign(core, f.Pos())
				if err != nil {
					return err
				}
				tokens[k] = lead + id + trail
			}
			attrs[i].Value = strings.Join(tokens, ",")
		}
	}
	f.SetAttributes(attrs)
	return nil
}

// assign returns the new id of oldID, drawing one if it was never seen.
func (e *Encoder) assign(oldID string, pos record.Pos) (string, error) {
	if err := checkID(oldID, pos); err != nil {
		return "", err
	}
	if prev, ok := e.table.ByOldID(oldID); ok {
		return prev.NewID, nil
	}
	newID, err := e.gen.Next()
	if err != nil {
		return "", fmt.Errorf("%s: %w", pos, err)
	}
	return newID, e.record(mapping.Entry{OldID: oldID, NewID: newID}, pos)
}

func (e *Encoder) record(entry mapping.Entry, pos record.Pos) error {
	if err := e.table.Append(entry); err != nil {
		if dup, ok := err.(*mapping.DuplicateOldIDError); ok {
			dup.Pos = pos
		}
		return err
	}
	if e.sink == nil {
		return nil
	}
	if err := e.sink.Write(entry); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	return nil
}

// checkID rejects ids that would not fit in one mapping TSV cell.
func checkID(id string, pos record.Pos) error {
	if strings.ContainsAny(id, "\t\r\n") {
		return record.Malformed(pos, "id %q contains a tab or line break", id)
	}
	return nil
}
