package imgload

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/imgload/loader"
	"github.com/gogpu/imgload/render"
	"github.com/gogpu/imgload/transport"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for imgload and all its sub-packages.
// By default, imgload produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use. Pass nil to disable logging.
//
// Log levels used by imgload:
//   - [slog.LevelDebug]: sizes, cache hits, texture rewrites
//   - [slog.LevelInfo]: textures created, downloads, saved files
//   - [slog.LevelWarn]: non-fatal issues (format fallback, cache write errors)
//
// Example:
//
//	imgload.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	loader.SetLogger(l)
	render.SetLogger(l)
	transport.SetLogger(l)
}

// Logger returns the current logger used by imgload.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
