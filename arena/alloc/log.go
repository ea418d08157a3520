package alloc

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Runtime debug flag for allocation logging - controlled by BTALLOC_LOG_ALLOC env var.
var logAlloc = os.Getenv("BTALLOC_LOG_ALLOC") != ""

func newLogger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	if logAlloc {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// debugEnabled is evaluated once per allocator; hot paths check the cached flag.
func debugEnabled(l *slog.Logger) bool {
	return l.Enabled(context.Background(), slog.LevelDebug)
}
