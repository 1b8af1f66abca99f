package log

import (
	"io"
	"log/slog"
)

// FormatJSON selects JSON log lines in NewLogger. Any other format gives text.
const FormatJSON = "json"

// level returns Debug when verbose, Info otherwise. Info is the default so
// that every stage of a run leaves one line in the log.
func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// NewLogger creates a sanitizing logger writing to w in the given format.
func NewLogger(w io.Writer, verbose bool, format string) *slog.Logger {
	if format == FormatJSON {
		return NewSecureJSONLogger(w, verbose)
	}
	return NewSecureLogger(w, verbose)
}

// NewSecureLogger creates a sanitizing logger with text output.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level(verbose),
	}
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, opts)))
}

// NewSecureJSONLogger creates a sanitizing logger with JSON output, one
// object per line, for log aggregation.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level(verbose),
	}
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, opts)))
}
