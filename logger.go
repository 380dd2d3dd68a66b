package fadgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with fadgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithModel adds a model field to the logger.
func (l *Logger) WithModel(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("model", name),
	}
}

// LogEmbeddingCached logs one embedding cache fill.
func (l *Logger) LogEmbeddingCached(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "embedding compute failed",
			"file", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "embedding cached",
			"file", name,
		)
	}
}

// LogStatsLoaded logs a statistics load, distinguishing cache hits from
// fresh computation.
func (l *Logger) LogStatsLoaded(ctx context.Context, dir string, hit bool) {
	if hit {
		l.InfoContext(ctx, "statistics already cached, loading",
			"dir", dir,
		)
	} else {
		l.InfoContext(ctx, "statistics computed",
			"dir", dir,
		)
	}
}

// LogScore logs a completed FAD score.
func (l *Logger) LogScore(ctx context.Context, backgroundDir, evalDir string, score float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "score failed",
			"background", backgroundDir,
			"eval", evalDir,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "score completed",
			"background", backgroundDir,
			"eval", evalDir,
			"score", score,
		)
	}
}

// LogFileSkipped logs a per-file scoring failure that was excluded from a
// ranking batch.
func (l *Logger) LogFileSkipped(ctx context.Context, name string, err error) {
	l.ErrorContext(ctx, "file excluded from ranking",
		"file", name,
		"error", err,
	)
}

// LogReportWritten logs a completed individual-score report.
func (l *Logger) LogReportWritten(ctx context.Context, path string, scored, failed int) {
	l.InfoContext(ctx, "individual score report written",
		"path", path,
		"scored", scored,
		"failed", failed,
	)
}

// LogReportSkipped logs a ranking run skipped because the report exists.
func (l *Logger) LogReportSkipped(ctx context.Context, path string) {
	l.InfoContext(ctx, "report already exists, skipping",
		"path", path,
	)
}
