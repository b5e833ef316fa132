// internal/cli/options.go
package cli

import (
	"fmt"

	"github.com/spf13/pflag"

	"seqrenamer/internal/cliutil"
	"seqrenamer/internal/config"
	"seqrenamer/internal/decode"
	"seqrenamer/internal/fingerprint"
	"seqrenamer/internal/formats"
)

// UsageError marks a bad command line or config value.
type UsageError struct{ Err error }

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

func usagef(format string, a ...any) error {
	return &UsageError{Err: fmt.Errorf(format, a...)}
}

// Input holds the flags shared by encode and decode.
type Input struct {
	Format  string
	Column  string
	Header  bool
	Comment string
	Outfile string
	Files   []string
}

func (in *Input) register(fs *pflag.FlagSet) {
	fs.StringVarP(&in.Format, "format", "f", formats.Auto, "input format: auto | fasta | gff3 | tsv | csv")
	fs.StringVarP(&in.Column, "column", "c", "", "id column: fasta id|description, gff3 seqid|id|name, tsv/csv 0-based index")
	fs.BoolVarP(&in.Header, "header", "H", false, "tsv/csv: the first line is a header")
	fs.StringVarP(&in.Comment, "comment", "C", "#", "comment line prefix, passed through unchanged")
	fs.StringVarP(&in.Outfile, "outfile", "o", "-", "output file ('-' = stdout)")
}

func (in *Input) applyConfig(cfg *config.Config, sets []*pflag.FlagSet) {
	if !cliutil.Changed("comment", sets...) {
		in.Comment = cfg.Comment
	}
}

// Resolve expands globs in the positionals, picks the concrete format and
// checks the column against it.
func (in *Input) Resolve(args []string) (string, error) {
	files, err := cliutil.ExpandPositionals(args)
	if err != nil {
		return "", &UsageError{Err: err}
	}
	in.Files = files

	format := in.Format
	if format == "" || format == formats.Auto {
		for _, p := range files {
			if p == "-" {
				continue
			}
			f, err := formats.Detect(formats.Auto, p)
			if err != nil {
				return "", &UsageError{Err: err}
			}
			if format != formats.Auto && format != "" && f != format {
				return "", usagef("inputs mix %s and %s files; please specify --format", format, f)
			}
			format = f
		}
		if format == "" || format == formats.Auto {
			return "", usagef("cannot detect the format of standard input; please specify --format")
		}
	} else if _, err := formats.Detect(format, ""); err != nil {
		return "", &UsageError{Err: err}
	}
	if err := formats.CheckColumn(format, in.Column); err != nil {
		return "", &UsageError{Err: err}
	}
	return format, nil
}

// ReaderOptions returns the per-format reader settings.
func (in *Input) ReaderOptions() formats.Options {
	return formats.Options{Column: in.Column, Header: in.Header, Comment: in.Comment}
}

// EncodeOptions holds the encode subcommand flags.
type EncodeOptions struct {
	Input
	MapFile     string
	Prefix      string
	Length      int
	Start       uint64
	Deduplicate bool
	Strip       string
	Upper       bool
	DropDesc    bool
	Checksum    string
}

func (o *EncodeOptions) Register(fs *pflag.FlagSet) {
	o.Input.register(fs)
	fs.StringVarP(&o.MapFile, "map", "m", "", "mapping file to write (required)")
	fs.StringVarP(&o.Prefix, "prefix", "p", "SR", "prefix of the new ids")
	fs.IntVarP(&o.Length, "length", "l", 0, "zero-pad the numeric part to this many digits (0 = no padding)")
	fs.Uint64Var(&o.Start, "start", 0, "first counter value")
	fs.BoolVarP(&o.Deduplicate, "deduplicate", "d", false, "give identical sequences one id and emit them once")
	fs.StringVarP(&o.Strip, "strip", "s", "", "characters to remove from the end of sequences")
	fs.BoolVarP(&o.Upper, "upper", "U", false, "upper-case sequences")
	fs.BoolVar(&o.DropDesc, "drop-desc", false, "remove descriptions from the output (kept in the mapping)")
	fs.StringVar(&o.Checksum, "checksum", string(fingerprint.SEGUID), "checksum for --deduplicate: seguid | blake2b")
}

// ApplyConfig fills every flag not given on the command line from cfg.
func (o *EncodeOptions) ApplyConfig(cfg *config.Config, sets ...*pflag.FlagSet) {
	o.Input.applyConfig(cfg, sets)
	if !cliutil.Changed("prefix", sets...) {
		o.Prefix = cfg.Prefix
	}
	if !cliutil.Changed("length", sets...) {
		o.Length = cfg.Length
	}
	if !cliutil.Changed("start", sets...) {
		o.Start = cfg.Start
	}
	if !cliutil.Changed("checksum", sets...) {
		o.Checksum = cfg.Checksum
	}
}

func (o *EncodeOptions) Validate() error {
	if o.MapFile == "" {
		return usagef("--map is required")
	}
	if o.MapFile == "-" && (o.Outfile == "" || o.Outfile == "-") {
		return usagef("--map and --outfile cannot both be standard output")
	}
	if o.Length < 0 {
		return usagef("--length must be >= 0")
	}
	if _, err := fingerprint.New(fingerprint.Algorithm(o.Checksum)); err != nil {
		return &UsageError{Err: err}
	}
	return nil
}

// Normalize returns the sequence transforms requested on the command line.
func (o *EncodeOptions) Normalize() fingerprint.Options {
	return fingerprint.Options{Strip: o.Strip, Upper: o.Upper}
}

// DecodeOptions holds the decode subcommand flags.
type DecodeOptions struct {
	Input
	MapFile     string
	Index       string
	Unresolved  string
	RestoreDesc bool
}

func (o *DecodeOptions) Register(fs *pflag.FlagSet) {
	o.Input.register(fs)
	fs.StringVarP(&o.MapFile, "map", "m", "", "mapping file written by encode")
	fs.StringVar(&o.Index, "index", "", "SQLite mapping index (built from --map when both are given)")
	fs.StringVar(&o.Unresolved, "unresolved", string(decode.Abort), "ids missing from the mapping: abort | skip | keep")
	fs.BoolVar(&o.RestoreDesc, "restore-desc", false, "refill empty descriptions from the mapping")
}

func (o *DecodeOptions) ApplyConfig(cfg *config.Config, sets ...*pflag.FlagSet) {
	o.Input.applyConfig(cfg, sets)
	if !cliutil.Changed("unresolved", sets...) {
		o.Unresolved = cfg.Unresolved
	}
}

func (o *DecodeOptions) Validate() error {
	if o.MapFile == "" && o.Index == "" {
		return usagef("provide --map or --index")
	}
	if _, err := decode.ParsePolicy(o.Unresolved); err != nil {
		return &UsageError{Err: err}
	}
	return nil
}

// Policy returns the parsed --unresolved value. Call after Validate.
func (o *DecodeOptions) Policy() decode.Policy {
	p, _ := decode.ParsePolicy(o.Unresolved)
	return p
}

// IndexOptions holds the index subcommand flags.
type IndexOptions struct {
	MapFile string
	DB      string
}

func (o *IndexOptions) Register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.MapFile, "map", "m", "", "mapping file to import (required)")
	fs.StringVar(&o.DB, "db", "", "SQLite index to create or replace (required)")
}

func (o *IndexOptions) Validate() error {
	switch {
	case o.MapFile == "" && o.DB == "":
		return usagef("--map and --db are required")
	case o.MapFile == "":
		return usagef("--map is required")
	case o.DB == "":
		return usagef("--db is required")
	}
	return nil
}
