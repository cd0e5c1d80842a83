package core

import (
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/chess10kp/catbar/internal/statusbar"
)

type styleKey struct {
	fg, bg statusbar.Color
}

// Styles maps span colors to lipgloss styles bound to one renderer. Styles
// are built on first use and reused for every later frame.
type Styles struct {
	renderer *lipgloss.Renderer
	mu       sync.Mutex
	cache    map[styleKey]lipgloss.Style
}

// NewStyles creates a style table for r.
func NewStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		renderer: r,
		cache:    make(map[styleKey]lipgloss.Style),
	}
}

func paletteColor(c statusbar.Color) (lipgloss.TerminalColor, bool) {
	idx := c.ANSI()
	if idx < 0 {
		return lipgloss.NoColor{}, false
	}
	return lipgloss.ANSIColor(idx), true
}

// Style returns the style for a foreground and background pair.
func (s *Styles) Style(fg, bg statusbar.Color) lipgloss.Style {
	key := styleKey{fg: fg, bg: bg}

	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.cache[key]; ok {
		return st
	}
	st := s.renderer.NewStyle()
	if c, ok := paletteColor(fg); ok {
		st = st.Foreground(c)
	}
	if c, ok := paletteColor(bg); ok {
		st = st.Background(c)
	}
	s.cache[key] = st
	return st
}

// Span renders one span. Default colors on both sides pass the text through.
func (s *Styles) Span(span statusbar.Span) string {
	if span.Fg == statusbar.ColorDefault && span.Bg == statusbar.ColorDefault {
		return span.Text
	}
	return s.Style(span.Fg, span.Bg).Render(span.Text)
}

// Len returns the number of cached styles
func (s *Styles) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}
