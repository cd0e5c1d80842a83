package modules

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/statusbar"
)

const ramIcon = "󰍛"

// SampleRAM returns the share of physical memory in use.
func SampleRAM() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	if vm.Total == 0 {
		return 0, fmt.Errorf("total memory is zero")
	}
	return float64(vm.Used) / float64(vm.Total) * 100, nil
}

// RAMWidget displays memory usage
type RAMWidget struct {
	sample  Sampler
	cadence statusbar.Cadence
	usage   int
	text    string
}

// NewRAMWidget creates a RAM widget sampling every interval.
func NewRAMWidget(sample Sampler, interval time.Duration) *RAMWidget {
	return &RAMWidget{
		sample:  sample,
		cadence: statusbar.NewEagerCadence(interval),
		text:    ramIcon + " 0%",
	}
}

// Cadence exposes the sampling cadence
func (w *RAMWidget) Cadence() *statusbar.Cadence {
	return &w.cadence
}

func (w *RAMWidget) Update() error {
	if !w.cadence.Due() {
		return nil
	}
	v, err := w.sample()
	if err != nil {
		return fmt.Errorf("sample memory: %w", err)
	}
	w.usage = int(v)
	w.text = fmt.Sprintf("%s %d%%", ramIcon, w.usage)
	return nil
}

func (w *RAMWidget) Render(colorize bool) []statusbar.Span {
	if !colorize {
		return []statusbar.Span{statusbar.Raw(w.text)}
	}
	color := statusbar.ColorGreen
	if w.usage >= 90 {
		color = statusbar.ColorRed
	}
	return []statusbar.Span{statusbar.Fg(w.text, color)}
}

// RAMFactory builds RAMWidgets
type RAMFactory struct {
	deps   Deps
	sample Sampler
}

func (f *RAMFactory) Name() string { return "ram" }

func (f *RAMFactory) Create(opts config.Options) (statusbar.Widget, error) {
	sample := f.sample
	if sample == nil {
		sample = SampleRAM
	}
	return NewRAMWidget(sample, opts.Seconds(config.OptUpdateInterval, 2*time.Second)), nil
}
