// Package gff3 reads and writes GFF3 feature lines as records.
package gff3

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"seqrenamer/internal/record"
)

// Field selects the column acting as record id.
type Field int

const (
	FieldID Field = iota // ID attribute (Parent follows it)
	FieldSeqID
	FieldName // Name attribute
)

// ParseField maps a --column value to a Field.
func ParseField(s string) (Field, bool) {
	switch s {
	case "", "id":
		return FieldID, true
	case "seqid":
		return FieldSeqID, true
	case "name":
		return FieldName, true
	}
	return FieldID, false
}

const numCols = 9

// Feature is one tab-separated feature line.
type Feature struct {
	Cols  [numCols - 1]string // seqid .. phase
	Attrs []record.Attribute
	Field Field
	At    record.Pos

	trailingSemi bool
}

func (f *Feature) attrKey() string {
	if f.Field == FieldName {
		return "Name"
	}
	return "ID"
}

// Attr returns the value of the first attribute named key.
func (f *Feature) Attr(key string) (string, bool) {
	for _, a := range f.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

func (f *Feature) ID() string {
	if f.Field == FieldSeqID {
		return f.Cols[0]
	}
	v, _ := f.Attr(f.attrKey())
	return v
}

// SetID replaces the selected column. A missing attribute is left missing.
func (f *Feature) SetID(id string) {
	if f.Field == FieldSeqID {
		f.Cols[0] = id
		return
	}
	key := f.attrKey()
	for i := range f.Attrs {
		if f.Attrs[i].Key == key {
			f.Attrs[i].Value = id
			return
		}
	}
}

func (f *Feature) Description() string   { return "" }
func (f *Feature) SetDescription(string) {}
func (f *Feature) Pos() record.Pos       { return f.At }

func (f *Feature) Attributes() []record.Attribute { return f.Attrs }

func (f *Feature) SetAttributes(attrs []record.Attribute) { f.Attrs = attrs }

func (f *Feature) Clone() record.Record {
	c := *f
	c.Attrs = append([]record.Attribute(nil), f.Attrs...)
	return &c
}

// Line is a directive, comment, blank line or embedded FASTA line.
type Line struct {
	Text string
	At   record.Pos
}

func (l *Line) ID() string            { return "" }
func (l *Line) SetID(string)          {}
func (l *Line) Description() string   { return "" }
func (l *Line) SetDescription(string) {}
func (l *Line) Pos() record.Pos       { return l.At }
func (l *Line) Clone() record.Record  { c := *l; return &c }
func (l *Line) Verbatim() bool        { return true }

// Reader parses GFF3 one line at a time.
type Reader struct {
	sc      *bufio.Scanner
	source  string
	field   Field
	comment string
	line    int
	inFasta bool
}

// Options configure a Reader.
type Options struct {
	Field   Field
	Comment string // extra comment prefix besides '#'
}

func NewReader(r io.Reader, source string, o Options) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)
	return &Reader{sc: sc, source: source, field: o.Field, comment: o.Comment}
}

func (r *Reader) Read() (record.Record, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return nil, record.Malformed(r.pos(), "gff3 scan: %v", err)
		}
		return nil, io.EOF
	}
	r.line++
	text := strings.TrimRight(r.sc.Text(), "\r")

	switch {
	case r.inFasta:
		return &Line{Text: text, At: r.pos()}, nil
	case text == "##FASTA":
		r.inFasta = true
		return &Line{Text: text, At: r.pos()}, nil
	case strings.TrimSpace(text) == "", text[0] == '#':
		return &Line{Text: text, At: r.pos()}, nil
	case r.comment != "" && strings.HasPrefix(text, r.comment):
		return &Line{Text: text, At: r.pos()}, nil
	case text[0] == '>':
		// FASTA without the ##FASTA directive
		r.inFasta = true
		return &Line{Text: text, At: r.pos()}, nil
	}
	return r.parseFeature(text)
}

func (r *Reader) pos() record.Pos { return record.Pos{Source: r.source, Line: r.line} }

func (r *Reader) parseFeature(text string) (record.Record, error) {
	cols := strings.Split(text, "\t")
	if len(cols) != numCols {
		return nil, record.Malformed(r.pos(), "gff3 feature has %d columns, want %d", len(cols), numCols)
	}
	f := &Feature{Field: r.field, At: r.pos()}
	copy(f.Cols[:], cols[:numCols-1])

	attrs, semi, err := ParseAttributes(cols[numCols-1])
	if err != nil {
		return nil, record.Malformed(r.pos(), "%v", err)
	}
	f.Attrs, f.trailingSemi = attrs, semi
	return f, nil
}

// ParseAttributes splits column 9 into ordered key/value pairs. "." yields no
// attributes. The second result reports a trailing ';'.
func ParseAttributes(s string) ([]record.Attribute, bool, error) {
	if s == "." || s == "" {
		return nil, false, nil
	}
	semi := strings.HasSuffix(s, ";")
	parts := strings.Split(strings.TrimSuffix(s, ";"), ";")
	attrs := make([]record.Attribute, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, false, fmt.Errorf("gff3 attribute %q is not tag=value", p)
		}
		attrs = append(attrs, record.Attribute{Key: strings.TrimSpace(k), Value: v})
	}
	return attrs, semi, nil
}

// FormatAttributes is the inverse of ParseAttributes.
func FormatAttributes(attrs []record.Attribute, trailingSemi bool) string {
	if len(attrs) == 0 {
		return "."
	}
	var b strings.Builder
	for i, a := range attrs {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(a.Value)
	}
	if trailingSemi {
		b.WriteByte(';')
	}
	return b.String()
}

// Writer serializes features and verbatim lines.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer { return &Writer{w: bufio.NewWriter(w)} }

func (w *Writer) Write(rec record.Record) error {
	switch r := rec.(type) {
	case *Line:
		_, err := w.w.WriteString(r.Text + "\n")
		return err
	case *Feature:
		var b bytes.Buffer
		for _, c := range r.Cols {
			b.WriteString(c)
			b.WriteByte('\t')
		}
		b.WriteString(FormatAttributes(r.Attrs, r.trailingSemi))
		b.WriteByte('\n')
		_, err := w.w.Write(b.Bytes())
		return err
	}
	return record.Malformed(rec.Pos(), "gff3 writer cannot serialize %T", rec)
}

func (w *Writer) Flush() error { return w.w.Flush() }
