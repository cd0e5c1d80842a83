package modules

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"

	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/statusbar"
)

const cpuIcon = "󰻠"

// Sampler returns one percentage reading.
type Sampler func() (float64, error)

// SampleCPU returns overall CPU utilisation since the previous call.
func SampleCPU() (float64, error) {
	pct, err := cpu.Percent(0, false)
	if err != nil {
		return 0, err
	}
	if len(pct) == 0 {
		return 0, fmt.Errorf("no cpu stats")
	}
	return pct[0], nil
}

// CPUWidget displays CPU usage as a percentage or a sparkline.
type CPUWidget struct {
	sample    Sampler
	cadence   statusbar.Cadence
	sparkline *statusbar.Sparkline
	usage     int
	text      string
}

// NewCPUWidget creates a CPU widget sampling every interval.
func NewCPUWidget(sample Sampler, interval time.Duration, spark *statusbar.Sparkline) *CPUWidget {
	w := &CPUWidget{
		sample:    sample,
		cadence:   statusbar.NewEagerCadence(interval),
		sparkline: spark,
	}
	w.format()
	return w
}

// Cadence exposes the sampling cadence; tests replace its clock.
func (w *CPUWidget) Cadence() *statusbar.Cadence {
	return &w.cadence
}

// Update samples the CPU once the interval has elapsed.
func (w *CPUWidget) Update() error {
	if !w.cadence.Due() {
		return nil
	}
	v, err := w.sample()
	if err != nil {
		return fmt.Errorf("sample cpu: %w", err)
	}
	w.usage = int(v)
	w.sparkline.Push(uint64(w.usage))
	w.format()
	return nil
}

func (w *CPUWidget) format() {
	if w.sparkline.Enabled {
		w.text = cpuIcon + " " + w.sparkline.String()
		return
	}
	w.text = fmt.Sprintf("%s %d%%", cpuIcon, w.usage)
}

// Render shows usage in red at 90% and above.
func (w *CPUWidget) Render(colorize bool) []statusbar.Span {
	if !colorize {
		return []statusbar.Span{statusbar.Raw(w.text)}
	}
	color := statusbar.ColorWhite
	if w.usage >= 90 {
		color = statusbar.ColorRed
	}
	return []statusbar.Span{statusbar.Fg(w.text, color)}
}

// CPUFactory builds CPUWidgets
type CPUFactory struct {
	deps   Deps
	sample Sampler
}

func (f *CPUFactory) Name() string { return "cpu" }

func (f *CPUFactory) Create(opts config.Options) (statusbar.Widget, error) {
	sample := f.sample
	if sample == nil {
		sample = SampleCPU
	}
	spark := statusbar.NewSparkline(
		opts.Bool(config.OptSparkline, false),
		opts.Int(config.OptSparklineLength, 10),
		opts.Bool(config.OptSparklineLogarithmic, false),
	)
	interval := opts.Seconds(config.OptSparklineUpdateFreq, 3*time.Second)
	interval = opts.Seconds(config.OptUpdateInterval, interval)
	return NewCPUWidget(sample, interval, spark), nil
}
