package mapping

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"seqrenamer/internal/record"
)

// Column names of the mapping TSV, in order.
var Columns = []string{"old_id", "new_id", "description", "checksum"}

// ParseError reports a mapping line that cannot be read.
type ParseError struct {
	Pos record.Pos
	Msg string
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: bad mapping line: %s", e.Pos, e.Msg) }

// Reader streams entries from a mapping TSV. Blank lines and a leading
// "old_id<TAB>new_id..." header are skipped. Every other line is data, even
// one starting with '#', since ids may. Only the first two columns are
// required.
type Reader struct {
	sc     *bufio.Scanner
	source string
	line   int
	rows   int
}

func NewReader(r io.Reader, source string) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{sc: sc, source: source}
}

// Pos returns the position of the line last returned.
func (r *Reader) Pos() record.Pos { return record.Pos{Source: r.source, Line: r.line} }

// Read returns the next entry or io.EOF.
func (r *Reader) Read() (Entry, error) {
	for r.sc.Scan() {
		r.line++
		line := strings.TrimRight(r.sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) < 2 {
			return Entry{}, &ParseError{Pos: r.Pos(), Msg: fmt.Sprintf("want at least 2 tab-separated columns, got %d", len(f))}
		}
		r.rows++
		if r.rows == 1 && f[0] == Columns[0] && f[1] == Columns[1] {
			continue
		}
		if f[0] == "" || f[1] == "" {
			return Entry{}, &ParseError{Pos: r.Pos(), Msg: "empty id"}
		}
		e := Entry{OldID: f[0], NewID: f[1]}
		if len(f) > 2 {
			e.Description = f[2]
		}
		if len(f) > 3 {
			e.Checksum = f[3]
		}
		return e, nil
	}
	if err := r.sc.Err(); err != nil {
		return Entry{}, fmt.Errorf("%s: read mapping: %w", r.source, err)
	}
	return Entry{}, io.EOF
}

// Load bulk-reads a mapping into a new Table.
func Load(r io.Reader, source string) (*Table, error) {
	t := NewTable()
	mr := NewReader(r, source)
	for {
		e, err := mr.Read()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, err
		}
		if err := t.Append(e); err != nil {
			var dup *DuplicateOldIDError
			if errors.As(err, &dup) {
				dup.Pos = mr.Pos()
			}
			return nil, err
		}
	}
}

// LoadFile opens path and loads it with Load.
func LoadFile(path string) (*Table, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()
	return Load(fh, path)
}

// Writer streams entries as TSV.
type Writer struct {
	w        *bufio.Writer
	checksum bool
	wrote    bool
}

// NewWriter writes entries to w. When checksum is set a fourth column is
// emitted. The header row is written before the first entry.
func NewWriter(w io.Writer, checksum bool) *Writer {
	return &Writer{w: bufio.NewWriter(w), checksum: checksum}
}

func (w *Writer) Write(e Entry) error {
	if !w.wrote {
		w.wrote = true
		cols := Columns[:3]
		if w.checksum {
			cols = Columns
		}
		if _, err := w.w.WriteString(strings.Join(cols, "\t") + "\n"); err != nil {
			return err
		}
	}
	row := []string{e.OldID, e.NewID, clean(e.Description)}
	if w.checksum {
		row = append(row, e.Checksum)
	}
	_, err := w.w.WriteString(strings.Join(row, "\t") + "\n")
	return err
}

// Flush writes buffered rows to the underlying writer.
func (w *Writer) Flush() error { return w.w.Flush() }

// clean keeps free-text descriptions on one TSV cell.
func clean(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
