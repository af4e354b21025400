// Package logging builds the application's structured logger.
package logging

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/lmittmann/tint"

	"github.com/km-arc/go-inject/framework/config"
)

// New returns a logger writing to stdout, configured from cfg.Log.
// APP_DEBUG lowers the level to debug.
func New(cfg *config.Config) *slog.Logger {
	logCfg := cfg.Log
	if cfg.App.Debug {
		logCfg.Level = slog.LevelDebug
	}
	return NewWithWriter(os.Stdout, logCfg)
}

// NewWithWriter returns a logger writing to w. JSON output uses slog's JSON
// handler, otherwise a colourised console handler.
func NewWithWriter(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: cfg.Level,
		})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      cfg.Level,
			TimeFormat: "15:04:05",
			NoColor:    !isTerminal(w),
		})
	}
	return slog.New(handler)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Legacy creates a [log.Logger] that writes each line to logger at level.
//
//	server.ErrorLog = logging.Legacy(logger, slog.LevelError)
func Legacy(logger *slog.Logger, level slog.Level) *log.Logger {
	return log.New(&slogWriter{logger: logger, level: level}, "", 0)
}

type slogWriter struct {
	mu     sync.Mutex
	logger *slog.Logger
	level  slog.Level
	// Partial line carried over to the next Write.
	buffer string
}

func (w *slogWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buffer += string(p)
	if i := strings.LastIndexByte(w.buffer, '\n'); i != -1 {
		for line := range strings.SplitSeq(w.buffer[:i], "\n") {
			w.logger.Log(context.Background(), w.level, line)
		}
		w.buffer = w.buffer[i+1:]
	}
	return len(p), nil
}
