// Package logging is a small leveled logger shared by the CLI and pipeline.
//
// Text output looks like "2006-01-02 15:04:05 [INFO] message". JSON output is
// one object per line with ts, level and msg keys, written through log/slog.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel accepts debug, info, warn, warning and error in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("invalid log level %q (want debug, info, warn or error)", s)
}

const timeLayout = "2006-01-02 15:04:05"

var (
	mu     sync.Mutex
	level  = LevelInfo
	format = "text"
	out    io.Writer = os.Stderr
	jsonLg *slog.Logger
)

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) {
	mu.Lock()
	level = l
	mu.Unlock()
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return level
}

// SetFormat selects "text" or "json". Anything else falls back to text.
func SetFormat(f string) {
	mu.Lock()
	defer mu.Unlock()
	if strings.EqualFold(f, "json") {
		format = "json"
	} else {
		format = "text"
	}
	jsonLg = nil
}

// SetOutput redirects log output. nil restores stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	out = w
	jsonLg = nil
}

// Writer returns the current output, for components such as the progress bar
// that must share the log stream.
func Writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return out
}

func newJSONLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				a.Key = "ts"
			case slog.LevelKey:
				a.Value = slog.StringValue(strings.ToLower(a.Value.String()))
			}
			return a
		},
	}))
}

func logf(l Level, msg string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	if format == "json" {
		if jsonLg == nil {
			jsonLg = newJSONLogger(out)
		}
		jsonLg.Log(context.Background(), l.slog(), msg)
		return
	}
	fmt.Fprintf(out, "%s [%s] %s\n", time.Now().Format(timeLayout), l, msg)
}

// Debug logs at LevelDebug.
func Debug(msg string, args ...any) { logf(LevelDebug, msg, args...) }

// Info logs at LevelInfo.
func Info(msg string, args ...any) { logf(LevelInfo, msg, args...) }

// Warn logs at LevelWarn.
func Warn(msg string, args ...any) { logf(LevelWarn, msg, args...) }

// Error logs at LevelError.
func Error(msg string, args ...any) { logf(LevelError, msg, args...) }
