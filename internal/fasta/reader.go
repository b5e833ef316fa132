// internal/fasta/reader.go
package fasta

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"seqrenamer/internal/record"
)

// Field selects which part of the header line acts as the record id.
type Field int

const (
	FieldID Field = iota
	FieldDescription
)

// ParseField maps a --column value to a Field.
func ParseField(s string) (Field, bool) {
	switch s {
	case "", "id":
		return FieldID, true
	case "description", "desc":
		return FieldDescription, true
	}
	return FieldID, false
}

// Record is a parsed FASTA sequence.
type Record struct {
	Name  string // first word of the header
	Desc  string // rest of the header
	Seq   []byte
	Field Field
	At    record.Pos
}

func (r *Record) ID() string {
	if r.Field == FieldDescription {
		return r.Desc
	}
	return r.Name
}

func (r *Record) SetID(id string) {
	if r.Field == FieldDescription {
		r.Desc = id
		return
	}
	r.Name = id
}

// Description is the header part not selected as id.
func (r *Record) Description() string {
	if r.Field == FieldDescription {
		return r.Name
	}
	return r.Desc
}

func (r *Record) SetDescription(d string) {
	if r.Field == FieldDescription {
		r.Name = d
		return
	}
	r.Desc = d
}

func (r *Record) Payload() []byte     { return r.Seq }
func (r *Record) SetPayload(p []byte) { r.Seq = p }
func (r *Record) Pos() record.Pos     { return r.At }

func (r *Record) Clone() record.Record {
	c := *r
	c.Seq = append([]byte(nil), r.Seq...)
	return &c
}

// Comment is a comment line ahead of the first header, written back as is.
type Comment struct {
	Line string
	At   record.Pos
}

func (c *Comment) ID() string            { return "" }
func (c *Comment) SetID(string)          {}
func (c *Comment) Description() string   { return "" }
func (c *Comment) SetDescription(string) {}
func (c *Comment) Pos() record.Pos       { return c.At }
func (c *Comment) Clone() record.Record  { cc := *c; return &cc }
func (c *Comment) Verbatim() bool        { return true }

// Reader parses multi-FASTA input one record at a time.
type Reader struct {
	sc      *bufio.Scanner
	source  string
	field   Field
	comment string
	line    int

	pending *Record // header already read, sequence being collected
	trailer []record.Record // comment lines met inside pending, emitted after it
	queued  []record.Record
	done    bool
}

// Options configure a Reader.
type Options struct {
	Field   Field
	Comment string // lines starting with this are kept verbatim, never read as sequence
}

func NewReader(r io.Reader, source string, o Options) *Reader {
	sc := bufio.NewScanner(r)
	const maxLine = 64 * 1024 * 1024 // allow very long single-line sequences (64 MiB)
	buf := make([]byte, 64*1024)
	sc.Buffer(buf, maxLine)
	return &Reader{sc: sc, source: source, field: o.Field, comment: o.Comment}
}

func (r *Reader) pos() record.Pos { return record.Pos{Source: r.source, Line: r.line} }

// Read returns the next record or io.EOF.
func (r *Reader) Read() (record.Record, error) {
	for {
		if len(r.queued) > 0 {
			rec := r.queued[0]
			r.queued = r.queued[1:]
			return rec, nil
		}
		if r.done {
			return nil, io.EOF
		}
		if !r.sc.Scan() {
			if err := r.sc.Err(); err != nil {
				return nil, &record.MalformedError{Pos: r.pos(), Msg: "fasta scan: " + err.Error()}
			}
			r.done = true
			if r.pending != nil {
				return r.flush(nil), nil
			}
			continue
		}
		r.line++
		line := bytes.TrimRight(r.sc.Bytes(), "\r")

		switch {
		case len(line) > 0 && line[0] == '>':
			name, desc := splitHeader(string(line[1:]))
			if name == "" {
				return nil, record.Malformed(r.pos(), "empty fasta header")
			}
			next := &Record{Name: name, Desc: desc, Field: r.field, At: r.pos(), Seq: make([]byte, 0, 256)}
			if r.pending != nil {
				return r.flush(next), nil
			}
			r.pending = next
		case len(line) > 0 && line[0] == ';':
			// old-style comment lines inside a record are dropped
			if r.pending == nil {
				r.queued = append(r.queued, &Comment{Line: string(line), At: r.pos()})
			}
		case r.comment != "" && strings.HasPrefix(string(line), r.comment):
			c := &Comment{Line: string(line), At: r.pos()}
			if r.pending != nil {
				r.trailer = append(r.trailer, c)
			} else {
				r.queued = append(r.queued, c)
			}
		default:
			seq := bytes.TrimSpace(line)
			if len(seq) == 0 {
				continue
			}
			if r.pending == nil {
				return nil, record.Malformed(r.pos(), "sequence data before the first '>' header")
			}
			r.pending.Seq = append(r.pending.Seq, seq...)
		}
	}
}

// flush returns the pending record, queues the comments met inside it and
// makes next the pending record.
func (r *Reader) flush(next *Record) *Record {
	rec := r.pending
	r.queued = append(r.queued, r.trailer...)
	r.pending, r.trailer = next, nil
	return rec
}

// splitHeader splits a header (without '>') into id and description at the
// first space.
func splitHeader(h string) (string, string) {
	h = strings.TrimRight(h, " \t")
	if i := strings.IndexAny(h, " \t"); i >= 0 {
		return h[:i], strings.TrimLeft(h[i+1:], " \t")
	}
	return h, ""
}
