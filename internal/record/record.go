// Package record defines the abstract record stream shared by the format
// readers/writers and the encode/decode pipelines.
//
// The pipelines only see the interfaces declared here. Concrete formats opt
// into extra behaviour through the capability interfaces Sequence, Feature
// and Verbatim.
package record

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Pos locates a record in its input, for diagnostics.
type Pos struct {
	Source string
	Line   int
}

func (p Pos) String() string {
	src := p.Source
	if src == "" {
		src = "<input>"
	}
	if p.Line <= 0 {
		return src
	}
	return fmt.Sprintf("%s:%d", src, p.Line)
}

// Record is one unit of a stream. ID and SetID address whichever field was
// selected as the identifier column when the record was read.
type Record interface {
	ID() string
	SetID(id string)
	Description() string
	SetDescription(desc string)
	Pos() Pos
	Clone() Record
}

// Sequence is implemented by records carrying a payload that can be
// fingerprinted.
type Sequence interface {
	Record
	Payload() []byte
	SetPayload(p []byte)
}

// Attribute is one key=value pair of a structured feature record.
type Attribute struct {
	Key   string
	Value string
}

// Feature is implemented by records whose identifiers live in ordered
// key/value attributes (GFF3 column 9).
type Feature interface {
	Record
	Attributes() []Attribute
	SetAttributes(attrs []Attribute)
}

// SplitToken separates one comma-separated attribute token (a Parent
// value, say) into its surrounding white space and its core.
func SplitToken(tok string) (lead, core, trail string) {
	rest := strings.TrimLeftFunc(tok, unicode.IsSpace)
	core = strings.TrimRightFunc(rest, unicode.IsSpace)
	return tok[:len(tok)-len(rest)], core, rest[len(core):]
}

// Verbatim is implemented by records that must pass through both pipelines
// untouched: comments, directives, header rows.
type Verbatim interface {
	Verbatim() bool
}

// IsVerbatim reports whether r bypasses id rewriting.
func IsVerbatim(r Record) bool {
	v, ok := r.(Verbatim)
	return ok && v.Verbatim()
}

// Reader yields records until it returns io.EOF.
type Reader interface {
	Read() (Record, error)
}

// Writer consumes records.
type Writer interface {
	Write(r Record) error
}

// MalformedError reports input that does not have the expected shape.
type MalformedError struct {
	Pos Pos
	Msg string
}

func (e *MalformedError) Error() string { return fmt.Sprintf("%s: malformed record: %s", e.Pos, e.Msg) }

// Malformed builds a *MalformedError.
func Malformed(pos Pos, format string, a ...any) error {
	return &MalformedError{Pos: pos, Msg: fmt.Sprintf(format, a...)}
}

// ForEach drains r, calling fn for every record.
func ForEach(r Reader, fn func(Record) error) error {
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// Mode selects how the id field of a stream is rewritten.
type Mode int

const (
	// ModeGeneric rewrites the single id field of each record.
	ModeGeneric Mode = iota
	// ModeGFF3ID rewrites the ID and Parent attributes of Feature records.
	ModeGFF3ID
)

func (m Mode) String() string {
	if m == ModeGFF3ID {
		return "gff3_id"
	}
	return "generic"
}
