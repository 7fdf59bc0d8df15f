// Package logger provides the process-wide logger for Aksara.
//
// The CLI logs in text form and stays quiet unless --verbose is given;
// the HTTP server switches to JSON at info level. Call sites use the
// printf-style helpers; HTTP middleware uses Slog directly.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Format selects the handler used for output.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

var (
	mu        sync.RWMutex
	verbose   bool
	format              = FormatText
	output    io.Writer = os.Stderr
	baseLevel           = slog.LevelWarn
	level               = new(slog.LevelVar)
	log       *slog.Logger
)

func init() {
	level.Set(baseLevel)
	log = build()
}

// build creates the slog logger for the current settings (caller must hold lock or be in init).
func build() *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(output, opts))
	}
	// Timestamps are noise on an interactive terminal.
	opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey && len(groups) == 0 {
			return slog.Attr{}
		}
		return a
	}
	return slog.New(slog.NewTextHandler(output, opts))
}

// SetVerbose enables or disables debug logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(baseLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetLevel sets the minimum level from a name (debug, info, warn, error).
// Unknown names are ignored and reported as an error.
func SetLevel(name string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(name)))); err != nil {
		return fmt.Errorf("unknown log level %q", name)
	}

	mu.Lock()
	defer mu.Unlock()
	baseLevel = l
	if !verbose {
		level.Set(l)
	}
	return nil
}

// SetOutput sets the output writer.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	log = build()
}

// SetFormat switches between text and JSON output.
func SetFormat(f Format) {
	mu.Lock()
	defer mu.Unlock()
	format = f
	log = build()
}

// Slog returns the underlying structured logger.
func Slog() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func logf(l slog.Level, msg string, args ...any) {
	mu.RLock()
	lg := log
	mu.RUnlock()

	ctx := context.Background()
	if !lg.Enabled(ctx, l) {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	lg.Log(ctx, l, msg)
}

// Debug logs a message when verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(slog.LevelDebug, format, args...)
}

// Section marks the start of a pipeline stage in verbose output.
func Section(name string) {
	mu.RLock()
	lg, f, w := log, format, output
	mu.RUnlock()

	if !lg.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if f == FormatText {
		fmt.Fprintf(w, "\n=== %s ===\n", name)
		return
	}
	lg.Debug("section", "name", name)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	logf(slog.LevelInfo, format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	logf(slog.LevelWarn, format, args...)
}

// Error logs an error.
func Error(format string, args ...any) {
	logf(slog.LevelError, format, args...)
}
