// Package formats maps format names to the record readers and writers of
// the fasta, gff3 and xsv packages.
package formats

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"seqrenamer/internal/fasta"
	"seqrenamer/internal/gff3"
	"seqrenamer/internal/record"
	"seqrenamer/internal/xsv"
)

// Supported format names.
const (
	Auto  = "auto"
	FASTA = "fasta"
	GFF3  = "gff3"
	TSV   = "tsv"
	CSV   = "csv"
)

// Names lists the concrete formats.
var Names = []string{FASTA, GFF3, TSV, CSV}

var extensions = map[string]string{
	"fasta": FASTA,
	"faa":   FASTA,
	"fna":   FASTA,
	"fas":   FASTA,
	"fa":    FASTA,
	"tsv":   TSV,
	"tab":   TSV,
	"csv":   CSV,
	"gff3":  GFF3,
	"gff":   GFF3,
}

// Detect resolves "auto" from the extension of path (ignoring .gz).
func Detect(format, path string) (string, error) {
	if format != "" && format != Auto {
		for _, n := range Names {
			if n == format {
				return format, nil
			}
		}
		return "", fmt.Errorf("unknown format %q", format)
	}
	name := strings.TrimSuffix(strings.ToLower(filepath.Base(path)), ".gz")
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if f, ok := extensions[ext]; ok && path != "-" {
		return f, nil
	}
	return "", fmt.Errorf("could not determine the format of %q; please specify --format", path)
}

// Options are the reader settings shared by all formats.
type Options struct {
	Column  string // format specific id column, "" for the default
	Header  bool   // tsv/csv only
	Comment string
}

// Mode returns how ids in the selected column are rewritten.
func Mode(format, column string) record.Mode {
	if format == GFF3 && (column == "" || column == "id") {
		return record.ModeGFF3ID
	}
	return record.ModeGeneric
}

// CheckColumn validates a --column value for format.
func CheckColumn(format, column string) error {
	switch format {
	case FASTA:
		if _, ok := fasta.ParseField(column); !ok {
			return fmt.Errorf("for fasta format the column must be 'id' or 'description', got %q", column)
		}
	case GFF3:
		if _, ok := gff3.ParseField(column); !ok {
			return fmt.Errorf("for gff3 format the column must be 'seqid', 'id', or 'name', got %q", column)
		}
	case TSV, CSV:
		if _, ok := xsv.ParseColumn(column); !ok {
			return fmt.Errorf("for tsv and csv formats a 0 based column index >= 0 must be used, got %q", column)
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

// NewReader wraps r in the record reader for format.
func NewReader(format string, r io.Reader, source string, o Options) (record.Reader, error) {
	if err := CheckColumn(format, o.Column); err != nil {
		return nil, err
	}
	switch format {
	case FASTA:
		f, _ := fasta.ParseField(o.Column)
		return fasta.NewReader(r, source, fasta.Options{Field: f, Comment: o.Comment}), nil
	case GFF3:
		f, _ := gff3.ParseField(o.Column)
		return gff3.NewReader(r, source, gff3.Options{Field: f, Comment: o.Comment}), nil
	default:
		col, _ := xsv.ParseColumn(o.Column)
		return xsv.NewReader(r, source, xsv.Options{Sep: sep(format), Column: col, Header: o.Header, Comment: o.Comment}), nil
	}
}

// Writer is a record.Writer with buffered output.
type Writer interface {
	record.Writer
	Flush() error
}

// NewWriter returns the record writer for format.
func NewWriter(format string, w io.Writer) (Writer, error) {
	switch format {
	case FASTA:
		return fasta.NewWriter(w), nil
	case GFF3:
		return gff3.NewWriter(w), nil
	case TSV, CSV:
		return xsv.NewWriter(w, sep(format)), nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// OpenAll chains the inputs at paths into one lazily opened stream.
func OpenAll(format string, paths []string, o Options) *record.Chain {
	openers := make([]record.Opener, len(paths))
	for i, p := range paths {
		p := p
		openers[i] = func() (record.Reader, io.Closer, error) {
			rc, err := Open(p)
			if err != nil {
				return nil, nil, err
			}
			source := p
			if p == "-" {
				source = "<stdin>"
			}
			rd, err := NewReader(format, rc, source, o)
			if err != nil {
				_ = rc.Close()
				return nil, nil, err
			}
			return rd, rc, nil
		}
	}
	return record.NewChain(openers...)
}

func sep(format string) rune {
	if format == CSV {
		return ','
	}
	return '\t'
}
