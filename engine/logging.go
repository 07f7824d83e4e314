package engine

import (
	"context"
	"log/slog"
)

// LevelTrace is a level below slog.LevelDebug for the highest-volume,
// per-packet diagnostics (route hit/miss detail), so it can be filtered
// independently of ordinary debug logging.
const LevelTrace slog.Level = slog.LevelDebug - 4

func logEnabled(l *slog.Logger, lvl slog.Level) bool {
	return l != nil && l.Handler().Enabled(context.Background(), lvl)
}

func logAttrs(l *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if l != nil {
		l.LogAttrs(context.Background(), level, msg, attrs...)
	}
}

func (e *Engine) trace(msg string, attrs ...slog.Attr) {
	if logEnabled(e.log, LevelTrace) {
		logAttrs(e.log, LevelTrace, msg, attrs...)
	}
}

func (e *Engine) debug(msg string, attrs ...slog.Attr) {
	logAttrs(e.log, slog.LevelDebug, msg, attrs...)
}
