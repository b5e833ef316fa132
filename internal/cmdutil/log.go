// internal/cmdutil/log.go
package cmdutil

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the stderr logger from --log-level / --log-format.
// quiet raises the level to error.
func NewLogger(dst io.Writer, level, format string, quiet bool) (*slog.Logger, error) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	if quiet && lv < slog.LevelError {
		lv = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: lv}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(dst, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(dst, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q (want text or json)", format)
}

func Warnf(log *slog.Logger, format string, a ...any) {
	log.Warn(fmt.Sprintf(format, a...))
}
