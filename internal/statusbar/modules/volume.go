package modules

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/statusbar"
)

const (
	volumeIcon      = "󰕾"
	volumeIconMuted = "󰝟"
)

// ParseWpctlVolume parses `wpctl get-volume` output such as
// "Volume: 0.45 [MUTED]" into a percentage and mute flag.
func ParseWpctlVolume(out []byte) (int, bool, error) {
	s := string(out)
	muted := strings.Contains(s, "[MUTED]")
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return 0, muted, fmt.Errorf("unexpected wpctl output %q", s)
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, muted, fmt.Errorf("parse volume %q: %w", fields[1], err)
	}
	return int(v*100 + 0.5), muted, nil
}

// VolumeWidget displays the default sink volume. While muted the whole
// widget is dimmed.
type VolumeWidget struct {
	read    func() ([]byte, error)
	cadence statusbar.Cadence
	level   int
	muted   bool
}

// NewVolumeWidget creates a volume widget polling every interval.
func NewVolumeWidget(read func() ([]byte, error), interval time.Duration) *VolumeWidget {
	return &VolumeWidget{read: read, cadence: statusbar.NewEagerCadence(interval)}
}

func (w *VolumeWidget) Update() error {
	if !w.cadence.Due() {
		return nil
	}
	out, err := w.read()
	if err != nil {
		return fmt.Errorf("wpctl: %w", err)
	}
	level, muted, err := ParseWpctlVolume(out)
	if err != nil {
		return err
	}
	w.level, w.muted = level, muted
	return nil
}

// Muted reports whether the sink is muted
func (w *VolumeWidget) Muted() bool {
	return w.muted
}

func (w *VolumeWidget) Render(colorize bool) []statusbar.Span {
	icon := volumeIcon
	if w.muted {
		icon = volumeIconMuted
	}
	text := fmt.Sprintf("%s %d%%", icon, w.level)
	if w.muted || !colorize {
		return []statusbar.Span{statusbar.Raw(text)}
	}
	return []statusbar.Span{statusbar.Fg(text, statusbar.ColorWhite)}
}

// VolumeFactory builds VolumeWidgets
type VolumeFactory struct {
	deps Deps
}

func (f *VolumeFactory) Name() string { return "volume" }

func (f *VolumeFactory) Create(opts config.Options) (statusbar.Widget, error) {
	read := func() ([]byte, error) { return f.deps.run("wpctl", "get-volume", "@DEFAULT_AUDIO_SINK@") }
	return NewVolumeWidget(read, opts.Seconds(config.OptUpdateInterval, time.Second)), nil
}
