// Package decode restores original ids in a record stream from a mapping.
//
// In generic mode an encoded id resolving to k entries fans out into k
// records (reduplication). Feature ID/Parent attributes are instead
// rewritten strictly one-to-one by RewriteFeature.
package decode

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"seqrenamer/internal/mapping"
	"seqrenamer/internal/record"
)

// Policy decides what happens to a record whose id has no mapping entry.
type Policy string

const (
	Abort Policy = "abort" // fail the run (default)
	Skip  Policy = "skip"  // drop the record
	Keep  Policy = "keep"  // pass it through unmapped
)

// ParsePolicy validates a policy name. The empty string selects Abort.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case "":
		return Abort, nil
	case Abort, Skip, Keep:
		return p, nil
	}
	return "", fmt.Errorf("unknown unresolved-id policy %q (want abort, skip or keep)", s)
}

// Options control a decode run.
type Options struct {
	Mode       record.Mode
	Unresolved Policy
	// RestoreDescription refills empty descriptions from the mapping.
	RestoreDescription bool
}

// UnresolvedIDError reports an id with no mapping entry.
type UnresolvedIDError struct {
	ID  string
	Pos record.Pos
}

func (e *UnresolvedIDError) Error() string {
	return fmt.Sprintf("%s: key %q is not in the mapping; have you selected the right column?", e.Pos, e.ID)
}

// Stats summarize a run.
type Stats struct {
	Read       int // non-verbatim records read
	Written    int // records written, including fan-out
	Unresolved int // records skipped or kept unmapped
}

// Decoder rewrites ids back. The lookup is only read.
type Decoder struct {
	lookup mapping.Lookup
	opts   Options
	log    *slog.Logger
}

func New(lookup mapping.Lookup, opts Options, log *slog.Logger) *Decoder {
	if opts.Unresolved == "" {
		opts.Unresolved = Abort
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Decoder{lookup: lookup, opts: opts, log: log}
}

// Decode reads src to the end, writing restored records to dst. It stops at
// the first error; records already written stay written.
func (d *Decoder) Decode(ctx context.Context, src record.Reader, dst record.Writer) (Stats, error) {
	var st Stats
	err := record.ForEach(src, func(rec record.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if record.IsVerbatim(rec) {
			return dst.Write(rec)
		}
		st.Read++

		if d.opts.Mode == record.ModeGFF3ID {
			if f, ok := rec.(record.Feature); ok {
				if err := RewriteFeature(f, d.lookup); err != nil {
					return err
				}
				st.Written++
				return dst.Write(f)
			}
		}
		return d.decodeGeneric(rec, dst, &st)
	})
	d.log.Info("decode finished", "mode", d.opts.Mode.String(),
		"records", st.Read, "written", st.Written, "unresolved", st.Unresolved)
	return st, err
}

func (d *Decoder) decodeGeneric(rec record.Record, dst record.Writer, st *Stats) error {
	id := rec.ID()
	if id == "" {
		st.Written++
		return dst.Write(rec)
	}
	entries, err := d.lookup.Lookup(id)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		switch d.opts.Unresolved {
		case Skip:
			st.Unresolved++
			d.log.Debug("unresolved id skipped", "id", id, "pos", rec.Pos().String())
			return nil
		case Keep:
			st.Unresolved++
			d.log.Debug("unresolved id kept", "id", id, "pos", rec.Pos().String())
			st.Written++
			return dst.Write(rec)
		}
		return &UnresolvedIDError{ID: id, Pos: rec.Pos()}
	}
	for _, e := range entries {
		out := rec.Clone()
		out.SetID(e.OldID)
		if d.opts.RestoreDescription && out.Description() == "" && e.Description != "" {
			out.SetDescription(e.Description)
		}
		if err := dst.Write(out); err != nil {
			return err
		}
		st.Written++
	}
	return nil
}
