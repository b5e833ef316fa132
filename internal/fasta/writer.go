package fasta

import (
	"bufio"
	"io"

	"seqrenamer/internal/record"
)

// LineWidth is the sequence wrap width used by Writer.
const LineWidth = 60

// Writer serializes records as FASTA.
type Writer struct {
	w     *bufio.Writer
	width int
}

func NewWriter(w io.Writer) *Writer { return &Writer{w: bufio.NewWriter(w), width: LineWidth} }

// Write emits rec. Verbatim records are written as their original line.
func (w *Writer) Write(rec record.Record) error {
	switch r := rec.(type) {
	case *Comment:
		_, err := w.w.WriteString(r.Line + "\n")
		return err
	case *Record:
		return w.writeRecord(r)
	}
	return record.Malformed(rec.Pos(), "fasta writer cannot serialize %T", rec)
}

// bufio errors are sticky; the last write or Flush reports them.
func (w *Writer) writeRecord(r *Record) error {
	w.w.WriteByte('>')
	w.w.WriteString(r.Name)
	if r.Desc != "" {
		w.w.WriteByte(' ')
		w.w.WriteString(r.Desc)
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	for off := 0; off < len(r.Seq); off += w.width {
		end := off + w.width
		if end > len(r.Seq) {
			end = len(r.Seq)
		}
		w.w.Write(r.Seq[off:end])
		if err := w.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes any buffered data.
func (w *Writer) Flush() error { return w.w.Flush() }
