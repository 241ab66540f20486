package glasspane

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/glasspane/window"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for glasspane and its sub-packages.
// By default glasspane produces no log output. Pass nil to restore the
// silent default.
//
// Log levels used by glasspane:
//   - [slog.LevelDebug]: per-frame diagnostics (batches, resolves, resizes)
//   - [slog.LevelInfo]: lifecycle events (adapter selected, window created)
//   - [slog.LevelWarn]: degraded paths (CPU fallback, dropped frames)
//
// Example:
//
//	glasspane.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	window.SetLogger(l)

	appMu.Lock()
	a := live
	appMu.Unlock()
	if a != nil {
		a.propagateLogger(l)
	}
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by the driver and by devices that log.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

func (a *App) propagateLogger(l *slog.Logger) {
	if a.drv != nil {
		a.drv.SetLogger(l)
	}
	if ls, ok := a.dev.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
