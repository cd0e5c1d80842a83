package modules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/sensors"

	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/statusbar"
)

const temperatureIcon = "\uf2c9"

// SampleTemperature returns the first CPU package or core sensor reading in
// degrees Celsius.
func SampleTemperature() (float64, error) {
	temps, err := sensors.TemperaturesWithContext(context.Background())
	if err != nil && len(temps) == 0 {
		return 0, err
	}
	for _, t := range temps {
		key := strings.ToLower(t.SensorKey)
		if strings.Contains(key, "cpu") || strings.Contains(key, "core") ||
			strings.Contains(key, "package") || strings.Contains(key, "k10temp") {
			return t.Temperature, nil
		}
	}
	return 0, fmt.Errorf("no cpu temperature sensor among %d sensors", len(temps))
}

// TemperatureWidget displays the CPU temperature
type TemperatureWidget struct {
	sample  Sampler
	cadence statusbar.Cadence
	value   int
	text    string
}

// NewTemperatureWidget creates a temperature widget sampling every interval.
func NewTemperatureWidget(sample Sampler, interval time.Duration) *TemperatureWidget {
	return &TemperatureWidget{
		sample:  sample,
		cadence: statusbar.NewEagerCadence(interval),
		text:    temperatureIcon + " 0°C",
	}
}

// Cadence exposes the sampling cadence
func (w *TemperatureWidget) Cadence() *statusbar.Cadence {
	return &w.cadence
}

func (w *TemperatureWidget) Update() error {
	if !w.cadence.Due() {
		return nil
	}
	v, err := w.sample()
	if err != nil {
		return fmt.Errorf("sample temperature: %w", err)
	}
	w.value = int(v + 0.5)
	w.text = fmt.Sprintf("%s %d°C", temperatureIcon, w.value)
	return nil
}

// Render shows the reading in red at 80°C and above.
func (w *TemperatureWidget) Render(colorize bool) []statusbar.Span {
	if !colorize {
		return []statusbar.Span{statusbar.Raw(w.text)}
	}
	color := statusbar.ColorYellow
	if w.value >= 80 {
		color = statusbar.ColorRed
	}
	return []statusbar.Span{statusbar.Fg(w.text, color)}
}

// TemperatureFactory builds TemperatureWidgets
type TemperatureFactory struct {
	deps   Deps
	sample Sampler
}

func (f *TemperatureFactory) Name() string { return "temperature" }

func (f *TemperatureFactory) Create(opts config.Options) (statusbar.Widget, error) {
	sample := f.sample
	if sample == nil {
		sample = SampleTemperature
	}
	return NewTemperatureWidget(sample, opts.Seconds(config.OptUpdateInterval, 5*time.Second)), nil
}
