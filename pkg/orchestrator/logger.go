package orchestrator

import (
	"fmt"
	"log/slog"
)

// Logger is the interface every orchestrator component logs through.
// Mirrors chatgear.Logger, with the package-wide "chatgear: " prefix
// replaced by a per-instance prefix (typically the session id) since one
// process hosts many concurrent sessions.
type Logger interface {
	ErrorPrintf(format string, args ...any)
	WarnPrintf(format string, args ...any)
	InfoPrintf(format string, args ...any)
	DebugPrintf(format string, args ...any)
}

type slogLogger struct {
	l      *slog.Logger
	prefix string
}

// DefaultLogger returns a Logger backed by slog.Default(), prefixed with
// prefix (e.g. "session abc123: ").
func DefaultLogger(prefix string) Logger {
	return &slogLogger{l: slog.Default(), prefix: prefix}
}

// NewLogger wraps an injected slog.Logger, prefixed with prefix.
func NewLogger(l *slog.Logger, prefix string) Logger {
	return &slogLogger{l: l, prefix: prefix}
}

func (s *slogLogger) ErrorPrintf(format string, args ...any) {
	s.l.Error(s.prefix + fmt.Sprintf(format, args...))
}

func (s *slogLogger) WarnPrintf(format string, args ...any) {
	s.l.Warn(s.prefix + fmt.Sprintf(format, args...))
}

func (s *slogLogger) InfoPrintf(format string, args ...any) {
	s.l.Info(s.prefix + fmt.Sprintf(format, args...))
}

func (s *slogLogger) DebugPrintf(format string, args ...any) {
	s.l.Debug(s.prefix + fmt.Sprintf(format, args...))
}
