// internal/cli/options_test.go
package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqrenamer/internal/config"
	"seqrenamer/internal/decode"
)

func newFS() *pflag.FlagSet { return pflag.NewFlagSet("test", pflag.ContinueOnError) }

func parseEncode(t *testing.T, cfg *config.Config, args ...string) EncodeOptions {
	t.Helper()
	var o EncodeOptions
	fs := newFS()
	o.Register(fs)
	require.NoError(t, fs.Parse(args))
	o.ApplyConfig(cfg, fs)
	return o
}

func TestEncodeDefaults(t *testing.T) {
	o := parseEncode(t, config.Default(), "-m", "map.tsv")
	require.NoError(t, o.Validate())
	assert.Equal(t, "SR", o.Prefix)
	assert.Zero(t, o.Length)
	assert.Equal(t, "#", o.Comment)
	assert.Equal(t, "seguid", o.Checksum)
	assert.True(t, o.Normalize().IsZero())
}

func TestFlagsOverrideConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Prefix = "CFG"
	cfg.Length = 8

	o := parseEncode(t, cfg, "-m", "map.tsv", "-p", "CLI")
	assert.Equal(t, "CLI", o.Prefix)
	assert.Equal(t, 8, o.Length)

	// an explicit flag equal to the built-in default still wins
	o = parseEncode(t, cfg, "-m", "map.tsv", "--length", "0")
	assert.Zero(t, o.Length)
}

func TestEncodeValidate(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"-m", "-"},
		{"-m", "m.tsv", "--length", "-1"},
		{"-m", "m.tsv", "--checksum", "md5"},
	} {
		o := parseEncode(t, config.Default(), args...)
		var ue *UsageError
		assert.True(t, errors.As(o.Validate(), &ue), "args %v", args)
	}
}

func TestDecodeValidate(t *testing.T) {
	var o DecodeOptions
	fs := newFS()
	o.Register(fs)
	require.NoError(t, fs.Parse([]string{"--index", "m.db", "--unresolved", "skip"}))
	o.ApplyConfig(config.Default(), fs)
	require.NoError(t, o.Validate())
	assert.Equal(t, decode.Skip, o.Policy())

	o = DecodeOptions{Unresolved: "abort"}
	assert.Error(t, o.Validate())
	o = DecodeOptions{MapFile: "m.tsv", Unresolved: "later"}
	assert.Error(t, o.Validate())
}

func TestIndexValidate(t *testing.T) {
	assert.Error(t, (&IndexOptions{}).Validate())
	assert.Error(t, (&IndexOptions{MapFile: "m.tsv"}).Validate())
	assert.NoError(t, (&IndexOptions{MapFile: "m.tsv", DB: "m.db"}).Validate())
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	fa := filepath.Join(dir, "a.fa.gz")
	tsv := filepath.Join(dir, "b.tsv")
	require.NoError(t, os.WriteFile(fa, nil, 0o644))
	require.NoError(t, os.WriteFile(tsv, nil, 0o644))

	cases := []struct {
		name    string
		in      Input
		args    []string
		want    string
		wantErr bool
	}{
		{name: "auto by extension", in: Input{Format: "auto"}, args: []string{fa}, want: "fasta"},
		{name: "explicit format on stdin", in: Input{Format: "csv", Column: "2"}, want: "csv"},
		{name: "auto on stdin", in: Input{Format: "auto"}, wantErr: true},
		{name: "mixed inputs", in: Input{Format: "auto"}, args: []string{fa, tsv}, wantErr: true},
		{name: "bad column", in: Input{Format: "gff3", Column: "description"}, args: []string{fa}, wantErr: true},
		{name: "unknown format", in: Input{Format: "bam"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.in.Resolve(tc.args)
			if tc.wantErr {
				var ue *UsageError
				assert.True(t, errors.As(err, &ue))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
