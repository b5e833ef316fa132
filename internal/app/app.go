// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"seqrenamer/internal/appshell"
	"seqrenamer/internal/cli"
	"seqrenamer/internal/cliutil"
	"seqrenamer/internal/cmdutil"
	"seqrenamer/internal/config"
	"seqrenamer/internal/decode"
	"seqrenamer/internal/encode"
	"seqrenamer/internal/fingerprint"
	"seqrenamer/internal/formats"
	"seqrenamer/internal/idgen"
	"seqrenamer/internal/mapping"
	"seqrenamer/internal/record"
	"seqrenamer/internal/version"
	"seqrenamer/internal/writers"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitUsage     = 2
	ExitIO        = 3
	ExitMalformed = 4
	ExitMapping   = 5
	ExitExhausted = 6
)

type globalOptions struct {
	config    string
	logLevel  string
	logFormat string
	quiet     bool
}

// runner carries the state of one Run call.
type runner struct {
	stdout, stderr io.Writer
	global         globalOptions
	cfg            *config.Config
	log            *slog.Logger

	// started is set once flags parsed and a subcommand began to run.
	started bool
}

// Run executes one seqrenamer command line and returns the exit code.
func Run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	r := &runner{stdout: stdout, stderr: stderr}
	root := r.rootCmd()
	root.SetOut(outw)
	root.SetErr(stderr)
	// cobra falls back to os.Args when given nil
	root.SetArgs(append([]string{}, argv...))

	err := root.ExecuteContext(ctx)
	if e := outw.Flush(); err == nil && e != nil && !writers.IsBrokenPipe(e) {
		err = e
	}
	if err == nil {
		return ExitOK
	}
	code := r.exitCode(err)
	if code == ExitOK {
		return code
	}
	_, _ = fmt.Fprintf(stderr, "seqrenamer: %v\n", err)
	if code == ExitUsage {
		_, _ = fmt.Fprintln(stderr, "Run 'seqrenamer --help' for usage.")
	}
	return code
}

func (r *runner) exitCode(err error) int {
	var (
		usage      *cli.UsageError
		malformed  *record.MalformedError
		dup        *mapping.DuplicateOldIDError
		parse      *mapping.ParseError
		unresolved *decode.UnresolvedIDError
		ambiguous  *decode.AmbiguousMappingError
		pathErr    *fs.PathError
	)
	switch {
	case writers.IsBrokenPipe(err):
		return ExitOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return appshell.ExitCanceled
	case errors.As(err, &usage), !r.started:
		return ExitUsage
	case errors.As(err, &malformed):
		return ExitMalformed
	case errors.As(err, &dup), errors.As(err, &parse),
		errors.As(err, &unresolved), errors.As(err, &ambiguous):
		return ExitMapping
	case errors.Is(err, idgen.ErrExhausted):
		return ExitExhausted
	case errors.As(err, &pathErr):
		return ExitIO
	}
	return ExitFailure
}

func (r *runner) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "seqrenamer",
		Short: "Replace sequence ids with short generated ids and restore them later.",
		Long: `seqrenamer encodes the ids of FASTA, GFF3, TSV and CSV files into short
generated ids, writing a mapping file, and decodes result files back to the
original ids using that mapping.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: r.setup,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &cli.UsageError{Err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&r.global.config, "config", "", "YAML config file")
	pf.StringVar(&r.global.logLevel, "log-level", "warn", "log level: debug | info | warn | error")
	pf.StringVar(&r.global.logFormat, "log-format", "text", "log format: text | json")
	pf.BoolVarP(&r.global.quiet, "quiet", "q", false, "only log errors")

	root.AddCommand(r.encodeCmd(), r.decodeCmd(), r.indexCmd(), r.versionCmd())
	return root
}

// setup loads the config file and builds the logger before any subcommand.
func (r *runner) setup(cmd *cobra.Command, _ []string) error {
	r.started = true
	cfg, err := config.Load(r.global.config)
	if err != nil {
		return &cli.UsageError{Err: err}
	}
	r.cfg = cfg

	level, format := r.global.logLevel, r.global.logFormat
	if !cliutil.Changed("log-level", cmd.Flags()) {
		level = cfg.Log.Level
	}
	if !cliutil.Changed("log-format", cmd.Flags()) {
		format = cfg.Log.Format
	}
	r.log, err = cmdutil.NewLogger(r.stderr, level, format, r.global.quiet)
	if err != nil {
		return &cli.UsageError{Err: err}
	}
	return nil
}

func (r *runner) encodeCmd() *cobra.Command {
	var o cli.EncodeOptions
	cmd := &cobra.Command{
		Use:   "encode -m MAP [flags] INFILE...",
		Short: "Replace ids with generated ids and write the mapping",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.ApplyConfig(r.cfg, cmd.Flags())
			return r.runEncode(cmd.Context(), &o, args)
		},
	}
	o.Register(cmd.Flags())
	return cmd
}

func (r *runner) runEncode(ctx context.Context, o *cli.EncodeOptions, args []string) error {
	if err := o.Validate(); err != nil {
		return err
	}
	format, err := o.Resolve(args)
	if err != nil {
		return err
	}
	if format != formats.FASTA && (o.Deduplicate || !o.Normalize().IsZero()) {
		cmdutil.Warnf(r.log, "--deduplicate, --strip and --upper only apply to fasta input; ignored for %s", format)
	}
	gen, err := idgen.New(o.Prefix, idgen.WithWidth(o.Length), idgen.WithStart(o.Start))
	if err != nil {
		return &cli.UsageError{Err: err}
	}
	sum, err := fingerprint.New(fingerprint.Algorithm(o.Checksum))
	if err != nil {
		return &cli.UsageError{Err: err}
	}

	mapOut, err := cmdutil.CreateOutput(o.MapFile, r.stdout)
	if err != nil {
		return err
	}
	out, err := cmdutil.CreateOutput(o.Outfile, r.stdout)
	if err != nil {
		_ = mapOut.Close()
		return err
	}
	mw := mapping.NewWriter(mapOut, o.Deduplicate)
	rw, err := formats.NewWriter(format, out)
	if err != nil {
		_ = mapOut.Close()
		_ = out.Close()
		return err
	}

	src := formats.OpenAll(format, o.Files, o.ReaderOptions())
	enc := encode.New(encode.Options{
		Mode:            formats.Mode(format, o.Column),
		Deduplicate:     o.Deduplicate,
		DropDescription: o.DropDesc,
		Normalize:       o.Normalize(),
		Checksum:        sum,
	}, gen, mw, r.log.With("cmd", "encode", "format", format))
	_, err = enc.Encode(ctx, src, rw)

	return writers.FirstError(err, src.Close(), rw.Flush(), out.Close(), mw.Flush(), mapOut.Close())
}

func (r *runner) decodeCmd() *cobra.Command {
	var o cli.DecodeOptions
	cmd := &cobra.Command{
		Use:   "decode (-m MAP | --index DB) [flags] INFILE...",
		Short: "Restore original ids using a mapping",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.ApplyConfig(r.cfg, cmd.Flags())
			return r.runDecode(cmd.Context(), &o, args)
		},
	}
	o.Register(cmd.Flags())
	return cmd
}

func (r *runner) runDecode(ctx context.Context, o *cli.DecodeOptions, args []string) error {
	if err := o.Validate(); err != nil {
		return err
	}
	format, err := o.Resolve(args)
	if err != nil {
		return err
	}
	log := r.log.With("cmd", "decode", "format", format)

	var lookup mapping.Lookup
	if o.Index != "" {
		ix, err := mapping.OpenIndex(o.Index)
		if err != nil {
			return err
		}
		defer func() { _ = ix.Close() }()
		if o.MapFile != "" {
			st, err := ix.ImportFile(ctx, o.MapFile)
			if err != nil {
				return err
			}
			log.Info("index built", "db", o.Index, "entries", st.Entries, "import_id", st.ID)
		}
		id, err := ix.ImportID()
		if err != nil {
			return err
		}
		if id == "" {
			cmdutil.Warnf(log, "index %s is empty; every id will be unresolved", o.Index)
		}
		log = log.With("import_id", id)
		lookup = ix
	} else {
		tb, err := mapping.LoadFile(o.MapFile)
		if err != nil {
			return err
		}
		log.Debug("mapping loaded", "file", o.MapFile, "entries", tb.Len(), "new_ids", tb.NewIDs())
		lookup = tb
	}

	out, err := cmdutil.CreateOutput(o.Outfile, r.stdout)
	if err != nil {
		return err
	}
	rw, err := formats.NewWriter(format, out)
	if err != nil {
		_ = out.Close()
		return err
	}

	src := formats.OpenAll(format, o.Files, o.ReaderOptions())
	dec := decode.New(lookup, decode.Options{
		Mode:               formats.Mode(format, o.Column),
		Unresolved:         o.Policy(),
		RestoreDescription: o.RestoreDesc,
	}, log)
	_, err = dec.Decode(ctx, src, rw)

	return writers.FirstError(err, src.Close(), rw.Flush(), out.Close())
}

func (r *runner) indexCmd() *cobra.Command {
	var o cli.IndexOptions
	cmd := &cobra.Command{
		Use:   "index -m MAP --db DB",
		Short: "Build an on-disk SQLite index of a mapping file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.Validate(); err != nil {
				return err
			}
			ix, err := mapping.OpenIndex(o.DB)
			if err != nil {
				return err
			}
			defer func() { _ = ix.Close() }()
			st, err := ix.ImportFile(cmd.Context(), o.MapFile)
			if err != nil {
				return err
			}
			r.log.Info("index built", "db", o.DB, "entries", st.Entries, "import_id", st.ID)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "indexed %d entries from %s into %s\n", st.Entries, o.MapFile, o.DB)
			return err
		},
	}
	o.Register(cmd.Flags())
	return cmd
}

func (r *runner) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "seqrenamer version %s\n", version.Version)
			return err
		},
	}
}
