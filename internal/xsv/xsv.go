// Package xsv reads and writes delimited tables (TSV, CSV) as records whose
// id is one selected column.
package xsv

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"seqrenamer/internal/record"
)

// Row is one table row.
type Row struct {
	Fields []string
	Column int
	At     record.Pos
	Header bool
}

func (r *Row) ID() string {
	if r.Column < len(r.Fields) {
		return r.Fields[r.Column]
	}
	return ""
}

func (r *Row) SetID(id string) {
	if r.Column < len(r.Fields) {
		r.Fields[r.Column] = id
	}
}

func (r *Row) Description() string   { return "" }
func (r *Row) SetDescription(string) {}
func (r *Row) Pos() record.Pos       { return r.At }
func (r *Row) Verbatim() bool        { return r.Header }

func (r *Row) Clone() record.Record {
	c := *r
	c.Fields = append([]string(nil), r.Fields...)
	return &c
}

// Comment is a line starting with the comment prefix, kept as is.
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

// Options configure a Reader.
type Options struct {
	Sep     rune // '\t' or ','
	Column  int
	Header  bool   // first row passes through untouched
	Comment string // default none
}

// ParseColumn parses a 0-based --column value. Empty means 0.
func ParseColumn(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Reader yields one Row per line. Quoted CSV fields may not span lines.
type Reader struct {
	sc     *bufio.Scanner
	source string
	o      Options
	line   int
	rows   int
}

func NewReader(r io.Reader, source string, o Options) *Reader {
	if o.Sep == 0 {
		o.Sep = '\t'
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)
	return &Reader{sc: sc, source: source, o: o}
}

func (r *Reader) pos() record.Pos { return record.Pos{Source: r.source, Line: r.line} }

func (r *Reader) Read() (record.Record, error) {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimRight(r.sc.Text(), "\r")
		if r.o.Comment != "" && strings.HasPrefix(text, r.o.Comment) {
			return &Comment{Line: text, At: r.pos()}, nil
		}
		if text == "" {
			continue
		}
		fields, err := r.split(text)
		if err != nil {
			return nil, record.Malformed(r.pos(), "%v", err)
		}
		r.rows++
		row := &Row{Fields: fields, Column: r.o.Column, At: r.pos(), Header: r.o.Header && r.rows == 1}
		if !row.Header && r.o.Column >= len(fields) {
			return nil, record.Malformed(r.pos(), "could not access column %d in a line with %d fields", r.o.Column, len(fields))
		}
		return row, nil
	}
	if err := r.sc.Err(); err != nil {
		return nil, record.Malformed(r.pos(), "scan: %v", err)
	}
	return nil, io.EOF
}

func (r *Reader) split(text string) ([]string, error) {
	if r.o.Sep == '\t' {
		return strings.Split(text, "\t"), nil
	}
	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = r.o.Sep
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.Read()
}

// Writer serializes rows with the same separator.
type Writer struct {
	bw  *bufio.Writer
	csv *csv.Writer
	sep rune
}

func NewWriter(w io.Writer, sep rune) *Writer {
	if sep == 0 {
		sep = '\t'
	}
	bw := bufio.NewWriter(w)
	cw := csv.NewWriter(bw)
	cw.Comma = sep
	return &Writer{bw: bw, csv: cw, sep: sep}
}

func (w *Writer) Write(rec record.Record) error {
	switch r := rec.(type) {
	case *Comment:
		w.csv.Flush()
		_, err := w.bw.WriteString(r.Line + "\n")
		return err
	case *Row:
		if w.sep == '\t' {
			_, err := w.bw.WriteString(strings.Join(r.Fields, "\t") + "\n")
			return err
		}
		return w.csv.Write(r.Fields)
	}
	return record.Malformed(rec.Pos(), "table writer cannot serialize %T", rec)
}

func (w *Writer) Flush() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return err
	}
	return w.bw.Flush()
}
