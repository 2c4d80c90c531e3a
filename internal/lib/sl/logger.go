package sl

import (
	"io"
	"log/slog"
)

const (
	envLocal = "local"
	envDev   = "dev"
)

// NewLogger текстовый логгер: debug для local и dev, info для остальных окружений.
func NewLogger(env string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if env == envLocal || env == envDev {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
