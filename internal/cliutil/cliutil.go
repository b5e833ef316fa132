// internal/cliutil/cliutil.go
package cliutil

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
)

func hasGlobMeta(s string) bool { return strings.ContainsAny(s, "*?[") }

// ExpandPositionals expands any globs among path-like positionals.
// No positionals means standard input.
func ExpandPositionals(posArgs []string) ([]string, error) {
	if len(posArgs) == 0 {
		return []string{"-"}, nil
	}
	var out []string
	for _, a := range posArgs {
		if a == "-" || !hasGlobMeta(a) {
			out = append(out, a)
			continue
		}
		m, err := filepath.Glob(a)
		if err != nil {
			return nil, fmt.Errorf("bad glob %q: %v", a, err)
		}
		if len(m) == 0 {
			return nil, fmt.Errorf("no input matched %q", a)
		}
		out = append(out, m...)
	}
	stdin := 0
	for _, p := range out {
		if p == "-" {
			stdin++
		}
	}
	if stdin > 1 {
		return nil, fmt.Errorf("standard input ('-') given %d times", stdin)
	}
	return out, nil
}

// Changed reports whether the flag was set on the command line, looking
// through fs and then its parents' persistent flags.
func Changed(name string, sets ...*pflag.FlagSet) bool {
	for _, fs := range sets {
		if fs == nil {
			continue
		}
		if f := fs.Lookup(name); f != nil && f.Changed {
			return true
		}
	}
	return false
}
