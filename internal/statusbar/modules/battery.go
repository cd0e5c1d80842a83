package modules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/statusbar"
)

const (
	batteryIcon         = "󰁹"
	batteryIconCharging = "󰂄"
)

// ErrNoBattery is returned when no battery device exists.
var ErrNoBattery = errors.New("no battery found")

// FindBattery returns the first battery device directory under dir.
func FindBattery(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", dir, err)
	}
	var found []string
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		kind, err := os.ReadFile(filepath.Join(p, "type"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(kind)) == "Battery" {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return "", ErrNoBattery
	}
	sort.Strings(found)
	return found[0], nil
}

// BatteryWidget displays charge and charging state.
type BatteryWidget struct {
	path       string
	cadence    statusbar.Cadence
	percentage int
	charging   bool
}

// NewBatteryWidget reads the battery at path once and fails if it cannot.
func NewBatteryWidget(path string, interval time.Duration) (*BatteryWidget, error) {
	w := &BatteryWidget{path: path, cadence: statusbar.NewCadence(interval)}
	if err := w.read(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *BatteryWidget) read() error {
	capacity, err := os.ReadFile(filepath.Join(w.path, "capacity"))
	if err != nil {
		return err
	}
	pct, err := strconv.Atoi(strings.TrimSpace(string(capacity)))
	if err != nil {
		return fmt.Errorf("parse capacity: %w", err)
	}
	status, err := os.ReadFile(filepath.Join(w.path, "status"))
	if err != nil {
		return err
	}
	w.percentage = pct
	w.charging = strings.TrimSpace(string(status)) == "Charging"
	return nil
}

// Cadence exposes the polling cadence
func (w *BatteryWidget) Cadence() *statusbar.Cadence {
	return &w.cadence
}

func (w *BatteryWidget) Update() error {
	if !w.cadence.Due() {
		return nil
	}
	if err := w.read(); err != nil {
		return fmt.Errorf("battery: %w", err)
	}
	return nil
}

// Render colors by state: green while charging or above 25%, yellow down
// to 11%, red at 10% and below.
func (w *BatteryWidget) Render(colorize bool) []statusbar.Span {
	icon := batteryIcon
	if w.charging {
		icon = batteryIconCharging
	}
	text := fmt.Sprintf("%s %d%%", icon, w.percentage)
	if !colorize {
		return []statusbar.Span{statusbar.Raw(text)}
	}
	var color statusbar.Color
	switch {
	case w.charging:
		color = statusbar.ColorGreen
	case w.percentage <= 10:
		color = statusbar.ColorRed
	case w.percentage <= 25:
		color = statusbar.ColorYellow
	default:
		color = statusbar.ColorGreen
	}
	return []statusbar.Span{statusbar.Fg(text, color)}
}

// BatteryFactory builds BatteryWidgets. A missing battery is an
// *statusbar.InitError.
type BatteryFactory struct {
	deps Deps
}

func (f *BatteryFactory) Name() string { return "battery" }

func (f *BatteryFactory) Create(opts config.Options) (statusbar.Widget, error) {
	path, err := FindBattery(f.deps.PowerSupplyDir)
	if err != nil {
		return nil, &statusbar.InitError{Widget: "battery", Err: err}
	}
	w, err := NewBatteryWidget(path, opts.Seconds(config.OptUpdateInterval, 3*time.Second))
	if err != nil {
		return nil, &statusbar.InitError{Widget: "battery", Err: err}
	}
	return w, nil
}
