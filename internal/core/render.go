package core

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/statusbar"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

// RegionSource is what a frame is drawn from.
type RegionSource interface {
	Region(name string) []statusbar.Widget
	Colorize() bool
}

// Renderer draws the three regions as one terminal line: left aligned in the
// first third, centered in the second, right aligned in the last.
type Renderer struct {
	out    io.Writer
	lg     *lipgloss.Renderer
	styles *Styles
	width  func() int
}

// RendererOption configures a Renderer
type RendererOption func(*Renderer)

// WithProfile forces a color profile instead of detecting one from out.
func WithProfile(p termenv.Profile) RendererOption {
	return func(r *Renderer) {
		r.lg.SetColorProfile(p)
	}
}

// WithWidth fixes the line width.
func WithWidth(width int) RendererOption {
	return func(r *Renderer) {
		r.width = func() int { return width }
	}
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, opts ...RendererOption) *Renderer {
	lg := lipgloss.NewRenderer(out)
	r := &Renderer{
		out:   out,
		lg:    lg,
		width: terminalWidth(out),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.styles = NewStyles(r.lg)
	return r
}

func terminalWidth(out io.Writer) func() int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return func() int { return DefaultWidth }
	}
	fd := int(f.Fd())
	return func() int {
		w, _, err := term.GetSize(fd)
		if err != nil || w <= 0 {
			return DefaultWidth
		}
		return w
	}
}

// Width returns the current line width
func (r *Renderer) Width() int {
	return r.width()
}

// region renders every widget of a region back to back.
func (r *Renderer) region(src RegionSource, name string, colorize bool) string {
	var b strings.Builder
	for _, w := range src.Region(name) {
		for _, span := range statusbar.RenderWidget(w, colorize) {
			if colorize {
				b.WriteString(r.styles.Span(span))
			} else {
				b.WriteString(span.Text)
			}
		}
	}
	return b.String()
}

// Line renders one frame exactly Width cells wide.
func (r *Renderer) Line(src RegionSource) string {
	width := r.Width()
	third := width / 3
	widths := [3]int{third, width - 2*third, third}
	positions := [3]lipgloss.Position{lipgloss.Left, lipgloss.Center, lipgloss.Right}

	colorize := src.Colorize()
	var b strings.Builder
	for i, name := range config.Regions {
		text := r.region(src, name, colorize)
		if lipgloss.Width(text) > widths[i] {
			text = ansi.Truncate(text, widths[i], "…")
		}
		b.WriteString(r.lg.PlaceHorizontal(widths[i], positions[i], text))
	}
	return b.String()
}

// Draw overwrites the current terminal line with a new frame.
func (r *Renderer) Draw(src RegionSource) error {
	if _, err := fmt.Fprint(r.out, "\r"+r.Line(src)); err != nil {
		return fmt.Errorf("draw frame: %w", err)
	}
	return nil
}

// Print writes a single frame followed by a newline.
func (r *Renderer) Print(src RegionSource) error {
	if _, err := fmt.Fprintln(r.out, r.Line(src)); err != nil {
		return fmt.Errorf("print frame: %w", err)
	}
	return nil
}
