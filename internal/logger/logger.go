package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/dtroode/identity-server/internal/redact"
)

// Logger represents application logger.
type Logger struct {
	*slog.Logger
}

// New creates new Logger instance with the specified level.
func New(level int) *Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter creates a Logger writing to w. Attributes whose key names a
// secret are masked before they are written.
func NewWithWriter(w io.Writer, level int) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:       slog.Level(level),
			ReplaceAttr: maskSecrets,
		})),
	}
}

// With returns a Logger that includes the given attributes in each output.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Fatal is equivalent to Error followed by os.Exit(1).
func (l *Logger) Fatal(msg string, args ...any) {
	l.Logger.Error(msg, args...)
	os.Exit(1)
}

func maskSecrets(_ []string, a slog.Attr) slog.Attr {
	if redact.IsSensitive(a.Key) {
		return slog.String(a.Key, redact.Mask)
	}
	return a
}
