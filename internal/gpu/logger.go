//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"
)

var (
	discardLogger = slog.New(slog.DiscardHandler)
	pkgLogger     atomic.Pointer[slog.Logger]
)

// slogger returns the logger installed by setLogger, or a logger that
// drops everything.
func slogger() *slog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return discardLogger
}

// setLogger installs l for the package. Nil restores silence.
func setLogger(l *slog.Logger) {
	pkgLogger.Store(l)
}
