package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

// LogLevel is the severity of a log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levels = [...]struct {
	name string
	slog slog.Level
}{
	LevelDebug: {"DEBUG", slog.LevelDebug},
	LevelInfo:  {"INFO", slog.LevelInfo},
	LevelWarn:  {"WARN", slog.LevelWarn},
	LevelError: {"ERROR", slog.LevelError},
}

func (l LogLevel) valid() bool {
	return l >= LevelDebug && l <= LevelError
}

func (l LogLevel) String() string {
	if !l.valid() {
		return "UNKNOWN"
	}
	return levels[l].name
}

// SlogLevel maps l onto slog. Unknown levels map to info.
func (l LogLevel) SlogLevel() slog.Level {
	if !l.valid() {
		return slog.LevelInfo
	}
	return levels[l].slog
}

// ParseLevel converts a case-insensitive level name into a LogLevel. The
// empty name is info; "warning" is accepted for warn.
func ParseLevel(name string) (LogLevel, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	switch n {
	case "":
		return LevelInfo, nil
	case "WARNING":
		return LevelWarn, nil
	}
	for l, def := range levels {
		if def.name == n {
			return LogLevel(l), nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// Format selects the slog handler used for output.
type Format string

const (
	FormatText Format = "text"
	// FormatJSON writes one object per line, for daemon mode under journald.
	FormatJSON Format = "json"
)

var current atomic.Pointer[slog.Logger]

// Init replaces the package logger. It also becomes the slog default.
func Init(level LogLevel, format Format, output io.Writer) {
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}

	var handler slog.Handler = slog.NewTextHandler(output, opts)
	if format == FormatJSON {
		handler = slog.NewJSONHandler(output, opts)
	}

	logger := slog.New(handler)
	current.Store(logger)
	slog.SetDefault(logger)
}

// InitForCLI sets up text logging at level.
func InitForCLI(level LogLevel, output io.Writer) {
	Init(level, FormatText, output)
}

func logger() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return slog.Default()
}

func emit(level LogLevel, subsystem string, err error, format string, args []interface{}) {
	l := logger()
	ctx := context.Background()
	if !l.Enabled(ctx, level.SlogLevel()) {
		return
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.LogAttrs(ctx, level.SlogLevel(), msg, attrs...)
}

func Debug(subsystem, format string, args ...interface{}) {
	emit(LevelDebug, subsystem, nil, format, args)
}

func Info(subsystem, format string, args ...interface{}) {
	emit(LevelInfo, subsystem, nil, format, args)
}

func Warn(subsystem, format string, args ...interface{}) {
	emit(LevelWarn, subsystem, nil, format, args)
}

// Error logs at error level with err attached as its own attribute.
func Error(subsystem string, err error, format string, args ...interface{}) {
	emit(LevelError, subsystem, err, format, args)
}
