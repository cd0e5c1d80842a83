package modules

import (
	"time"

	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/statusbar"
)

// DefaultTimeFormat is the layout used when no "format" option is given.
const DefaultTimeFormat = "2006-01-02 15:04:05"

// TimeWidget displays the local date and time.
type TimeWidget struct {
	format string
	now    func() time.Time
	text   string
	hour   int
}

// NewTimeWidget creates a time widget using a Go time layout.
func NewTimeWidget(format string, now func() time.Time) *TimeWidget {
	w := &TimeWidget{format: format, now: now}
	w.Update()
	return w
}

// Update re-reads the clock
func (w *TimeWidget) Update() error {
	t := w.now()
	w.text = t.Format(w.format)
	w.hour = t.Hour()
	return nil
}

// Render shows the time, yellow during the day and magenta at night.
func (w *TimeWidget) Render(colorize bool) []statusbar.Span {
	if !colorize {
		return []statusbar.Span{statusbar.Raw(w.text)}
	}
	color := statusbar.ColorMagenta
	if w.hour >= 6 && w.hour < 18 {
		color = statusbar.ColorYellow
	}
	return []statusbar.Span{statusbar.Fg(w.text, color)}
}

// TimeFactory builds TimeWidgets
type TimeFactory struct {
	deps Deps
}

func (f *TimeFactory) Name() string { return "time" }

func (f *TimeFactory) Create(opts config.Options) (statusbar.Widget, error) {
	return NewTimeWidget(opts.String(config.OptFormat, DefaultTimeFormat), f.deps.Now), nil
}
