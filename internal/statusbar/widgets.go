package statusbar

import (
	"github.com/chess10kp/catbar/internal/plugin"
)

// ErrorGlyph is rendered in place of a widget that could not be built.
const ErrorGlyph = " \uf071 "

// ErrorWidget stands in for unknown names and widgets that failed to
// initialize.
type ErrorWidget struct {
	name string
}

// NewErrorWidget creates the fallback widget for name.
func NewErrorWidget(name string) *ErrorWidget {
	return &ErrorWidget{name: name}
}

// Name returns the widget name that could not be resolved
func (w *ErrorWidget) Name() string {
	return w.name
}

func (w *ErrorWidget) Update() error { return nil }

func (w *ErrorWidget) Render(colorize bool) []Span {
	return []Span{Raw(ErrorGlyph)}
}

// PluginWidget adapts a Lua plugin to the Widget interface.
type PluginWidget struct {
	def *plugin.Definition
}

// NewPluginWidget wraps def.
func NewPluginWidget(def *plugin.Definition) *PluginWidget {
	return &PluginWidget{def: def}
}

// Name returns the plugin name
func (w *PluginWidget) Name() string {
	return w.def.Name()
}

func (w *PluginWidget) Update() error {
	return w.def.Update()
}

// Render applies the plugin's color whenever it returns one; the plugin is
// told about colorize and decides for itself.
func (w *PluginWidget) Render(colorize bool) []Span {
	res := w.def.Render(colorize)
	if res.Failed || res.Color == "" {
		return []Span{Raw(res.Text)}
	}
	return []Span{Fg(res.Text, ParseColor(res.Color))}
}
