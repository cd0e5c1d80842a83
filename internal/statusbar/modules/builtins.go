// Package modules implements the built-in status bar widgets.
package modules

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/chess10kp/catbar/internal/compositor"
	"github.com/chess10kp/catbar/internal/statusbar"
)

// DefaultCommandTimeout bounds every external command a widget runs from the
// main loop.
const DefaultCommandTimeout = 500 * time.Millisecond

// Deps are the collaborators shared by the built-in widgets.
type Deps struct {
	Compositor     compositor.Client
	Run            compositor.Runner
	HTTPClient     *http.Client
	Logger         *slog.Logger
	CommandTimeout time.Duration
	// PowerSupplyDir is where battery devices are looked up.
	PowerSupplyDir string
	// ApplicationDirs are searched for .desktop entries by the windows widget.
	ApplicationDirs []string
	// Now is the clock used by the time widget.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Compositor == nil {
		d.Compositor = compositor.Null{}
	}
	if d.Run == nil {
		d.Run = compositor.ExecRunner
	}
	if d.HTTPClient == nil {
		d.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.CommandTimeout <= 0 {
		d.CommandTimeout = DefaultCommandTimeout
	}
	if d.PowerSupplyDir == "" {
		d.PowerSupplyDir = "/sys/class/power_supply"
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.ApplicationDirs == nil {
		d.ApplicationDirs = DefaultApplicationDirs()
	}
	return d
}

// run executes a command bounded by the command timeout.
func (d Deps) run(name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.CommandTimeout)
	defer cancel()
	return d.Run(ctx, name, args...)
}

func (d Deps) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d.CommandTimeout)
}

// Factories returns one factory per built-in widget kind.
func Factories(deps Deps) []statusbar.Factory {
	deps = deps.withDefaults()
	return []statusbar.Factory{
		&TimeFactory{deps: deps},
		&WeatherFactory{deps: deps},
		&TemperatureFactory{deps: deps},
		&CPUFactory{deps: deps},
		&RAMFactory{deps: deps},
		&WifiFactory{deps: deps},
		&BrightnessFactory{deps: deps},
		&VolumeFactory{deps: deps},
		&BatteryFactory{deps: deps},
		&WorkspacesFactory{deps: deps},
		&WindowsFactory{deps: deps},
		&SeparatorFactory{},
		&SpaceFactory{},
	}
}

// RegisterBuiltins registers every built-in widget kind on reg.
func RegisterBuiltins(reg *statusbar.Registry, deps Deps) error {
	for _, f := range Factories(deps) {
		if err := reg.Register(f); err != nil {
			return err
		}
	}
	return nil
}
