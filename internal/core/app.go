// Package core runs the bar: the main loop that interleaves configuration
// reloads with widget update and draw passes, and the terminal renderer.
package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/chess10kp/catbar/internal/statusbar"
)

// DefaultTickInterval is the time between update and draw passes.
const DefaultTickInterval = 333 * time.Millisecond

// Runtime is the live widget set the app drives.
type Runtime interface {
	RegionSource
	Tick() error
	Reload() error
}

var _ Runtime = (*statusbar.Manager)(nil)

// Drawer puts a frame on screen.
type Drawer interface {
	Draw(src RegionSource) error
}

// App is the main loop. It owns the runtime: every Tick, Reload and draw
// happens on the goroutine that calls Run.
type App struct {
	runtime Runtime
	drawer  Drawer
	reloads <-chan struct{}
	tick    time.Duration
	logger  *slog.Logger
}

// AppOption configures an App
type AppOption func(*App)

// WithReloads sets the channel reload requests arrive on.
func WithReloads(ch <-chan struct{}) AppOption {
	return func(a *App) {
		a.reloads = ch
	}
}

// WithTickInterval sets the update and draw period.
func WithTickInterval(d time.Duration) AppOption {
	return func(a *App) {
		if d > 0 {
			a.tick = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) AppOption {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewApp creates an app drawing rt with d.
func NewApp(rt Runtime, d Drawer, opts ...AppOption) *App {
	a := &App{
		runtime: rt,
		drawer:  d,
		tick:    DefaultTickInterval,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "app")
	return a
}

// Run draws a frame immediately and then one per tick until ctx is done. A
// pending reload request is always serviced before the next update pass.
// Only a failure to draw ends the loop early.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting", "tick", a.tick)

	if err := a.frame(); err != nil {
		return err
	}

	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			a.logger.Info("shutting down")
			return nil
		}
		select {
		case <-ctx.Done():
			a.logger.Info("shutting down")
			return nil
		case <-a.reloads:
			a.reload()
		case <-ticker.C:
			if err := a.frame(); err != nil {
				return err
			}
		}
	}
}

// frame services any pending reload, updates every widget and draws.
func (a *App) frame() error {
	a.drainReloads()
	if err := a.runtime.Tick(); err != nil {
		a.logger.Debug("update pass had failures", "err", err)
	}
	return a.drawer.Draw(a.runtime)
}

func (a *App) drainReloads() {
	for {
		select {
		case <-a.reloads:
			a.reload()
		default:
			return
		}
	}
}

func (a *App) reload() {
	a.logger.Info("configuration changed, reloading")
	if err := a.runtime.Reload(); err != nil {
		a.logger.Error("reload failed, keeping current configuration", "err", err)
	}
}
