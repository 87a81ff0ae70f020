// Package logging provides structured logging setup for rentwise.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup initializes the default slog logger.
// Dev mode uses human-readable text at debug level unless level says
// otherwise; prod uses JSON.
func Setup(devMode bool, level string) error {
	return setup(os.Stdout, devMode, level)
}

func setup(w io.Writer, devMode bool, level string) error {
	lvl := slog.LevelInfo
	if devMode {
		lvl = slog.LevelDebug
	}
	if strings.TrimSpace(level) != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return fmt.Errorf("parsing log level %q: %w", level, err)
		}
	}

	var handler slog.Handler
	if devMode {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
