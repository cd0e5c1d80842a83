package statusbar

import (
	"time"
)

// Color is a terminal foreground/background color.
type Color int

const (
	ColorDefault Color = iota
	ColorBlack
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorGray
	ColorDarkGray
	ColorLightRed
	ColorLightGreen
	ColorWhite
)

// String returns the string representation of Color
func (c Color) String() string {
	switch c {
	case ColorDefault:
		return "default"
	case ColorBlack:
		return "black"
	case ColorRed:
		return "red"
	case ColorGreen:
		return "green"
	case ColorYellow:
		return "yellow"
	case ColorBlue:
		return "blue"
	case ColorMagenta:
		return "magenta"
	case ColorCyan:
		return "cyan"
	case ColorGray:
		return "gray"
	case ColorDarkGray:
		return "dark_gray"
	case ColorLightRed:
		return "light_red"
	case ColorLightGreen:
		return "light_green"
	case ColorWhite:
		return "white"
	default:
		return "unknown"
	}
}

// Span is a run of text with a single style.
type Span struct {
	Text string
	Fg   Color
	Bg   Color
}

// Raw returns an unstyled span.
func Raw(text string) Span {
	return Span{Text: text}
}

// Fg returns a span with a foreground color.
func Fg(text string, c Color) Span {
	return Span{Text: text, Fg: c}
}

// Text concatenates the text of spans, dropping styles.
func Text(spans []Span) string {
	var n int
	for _, s := range spans {
		n += len(s.Text)
	}
	buf := make([]byte, 0, n)
	for _, s := range spans {
		buf = append(buf, s.Text...)
	}
	return string(buf)
}

// Widget is the interface that all status bar widgets must implement.
//
// The set of implementations is closed: one per built-in kind in the modules
// package, plus ErrorWidget and PluginWidget in this package. Update may be a
// no-op. Both methods are only ever called from the main loop goroutine.
type Widget interface {
	Update() error
	Render(colorize bool) []Span
}

// Muter is implemented by widgets whose output is dimmed while muted.
type Muter interface {
	Muted() bool
}

// RenderWidget renders w, dimming every span when w reports itself muted.
func RenderWidget(w Widget, colorize bool) []Span {
	spans := w.Render(colorize)
	if m, ok := w.(Muter); ok && m.Muted() {
		dimmed := make([]Span, len(spans))
		for i, s := range spans {
			s.Fg = ColorDarkGray
			dimmed[i] = s
		}
		return dimmed
	}
	return spans
}

// Cadence throttles sampling to a fixed interval. The zero value is always due.
type Cadence struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewCadence creates a cadence whose first sample is due after interval.
func NewCadence(interval time.Duration) Cadence {
	return Cadence{interval: interval, last: time.Now(), now: time.Now}
}

// Interval returns the sampling interval
func (c *Cadence) Interval() time.Duration {
	return c.interval
}

// SetClock replaces the time source; used by tests.
func (c *Cadence) SetClock(now func() time.Time) {
	c.now = now
	c.last = now()
}

// Due reports whether the interval has elapsed and, if so, restarts it.
func (c *Cadence) Due() bool {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	t := now()
	if t.Sub(c.last) < c.interval {
		return false
	}
	c.last = t
	return true
}

// NewEagerCadence creates a cadence whose first sample is due immediately.
func NewEagerCadence(interval time.Duration) Cadence {
	return Cadence{interval: interval, now: time.Now}
}
