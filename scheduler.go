package glasspane

import (
	"context"
	"runtime"
	"time"
)

// Run drives the App until ctx is cancelled, Quit is called or an event
// source reports quit. Every tick, or immediately after Wake, it runs one
// Step. Run returns nil on a regular exit and the first frame error
// otherwise.
//
// Run locks the calling goroutine to its OS thread; native windows must
// be created on that same goroutine.
func (a *App) Run(ctx context.Context) error {
	if a.closed {
		return ErrClosed
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ticker := time.NewTicker(a.settings.TickInterval)
	defer ticker.Stop()

	Logger().Debug("scheduler started", "interval", a.settings.TickInterval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.quit:
			return nil
		case <-a.wake:
		case <-ticker.C:
		}

		// Quit and cancellation win over a frame that became due at the
		// same time.
		select {
		case <-ctx.Done():
			return nil
		case <-a.quit:
			return nil
		default:
		}

		quit, err := a.Step()
		if err != nil {
			return err
		}
		if quit {
			Logger().Debug("event source requested quit")
			return nil
		}
	}
}
