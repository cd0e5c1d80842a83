package modules

import (
	"fmt"
	"regexp"
	"time"

	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/statusbar"
)

const brightnessIcon = "󰃠"

var percentRe = regexp.MustCompile(`\d+%`)

// ParseBrightness extracts the percentage from brightnessctl output.
func ParseBrightness(out []byte) (string, error) {
	m := percentRe.Find(out)
	if m == nil {
		return "", fmt.Errorf("no percentage in brightnessctl output %q", out)
	}
	return string(m), nil
}

// BrightnessWidget displays the backlight level
type BrightnessWidget struct {
	read    func() ([]byte, error)
	cadence statusbar.Cadence
	level   string
}

// NewBrightnessWidget creates a brightness widget polling every interval.
func NewBrightnessWidget(read func() ([]byte, error), interval time.Duration) *BrightnessWidget {
	return &BrightnessWidget{read: read, cadence: statusbar.NewEagerCadence(interval)}
}

func (w *BrightnessWidget) Update() error {
	if !w.cadence.Due() {
		return nil
	}
	out, err := w.read()
	if err != nil {
		w.level = ""
		return fmt.Errorf("brightnessctl: %w", err)
	}
	level, err := ParseBrightness(out)
	if err != nil {
		w.level = ""
		return err
	}
	w.level = level
	return nil
}

func (w *BrightnessWidget) Render(colorize bool) []statusbar.Span {
	text := brightnessIcon + " " + w.level
	if !colorize {
		return []statusbar.Span{statusbar.Raw(text)}
	}
	return []statusbar.Span{statusbar.Fg(text, statusbar.ColorWhite)}
}

// BrightnessFactory builds BrightnessWidgets
type BrightnessFactory struct {
	deps Deps
}

func (f *BrightnessFactory) Name() string { return "brightness" }

func (f *BrightnessFactory) Create(opts config.Options) (statusbar.Widget, error) {
	read := func() ([]byte, error) { return f.deps.run("brightnessctl") }
	return NewBrightnessWidget(read, opts.Seconds(config.OptUpdateInterval, time.Second)), nil
}
