package modules

import (
	"fmt"
	"strconv"

	"github.com/chess10kp/catbar/internal/compositor"
	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/statusbar"
)

var rainbow = []statusbar.Color{
	statusbar.ColorRed,
	statusbar.ColorYellow,
	statusbar.ColorGreen,
	statusbar.ColorCyan,
	statusbar.ColorBlue,
	statusbar.ColorMagenta,
	statusbar.ColorLightRed,
}

// rainbowColor picks a color for numbered workspaces; ok is false for
// names that are not positive integers.
func rainbowColor(name string) (statusbar.Color, bool) {
	n, err := strconv.Atoi(name)
	if err != nil || n <= 0 {
		return statusbar.ColorDefault, false
	}
	return rainbow[(n-1)%len(rainbow)], true
}

// WorkspacesWidget displays every workspace, highlighting the active one.
type WorkspacesWidget struct {
	client     compositor.Client
	deps       Deps
	workspaces []compositor.Workspace
}

// NewWorkspacesWidget creates a workspaces widget.
func NewWorkspacesWidget(client compositor.Client, deps Deps) *WorkspacesWidget {
	return &WorkspacesWidget{client: client, deps: deps}
}

func (w *WorkspacesWidget) Update() error {
	ctx, cancel := w.deps.ctx()
	defer cancel()

	wss, err := w.client.Workspaces(ctx)
	if err != nil {
		return fmt.Errorf("workspaces: %w", err)
	}
	w.workspaces = wss
	return nil
}

// Render colors numbered workspaces along a rainbow; the active one is drawn
// on its color. Without colorize the active workspace is bracketed.
func (w *WorkspacesWidget) Render(colorize bool) []statusbar.Span {
	spans := make([]statusbar.Span, 0, len(w.workspaces))
	for _, ws := range w.workspaces {
		if !colorize {
			if ws.IsActive {
				spans = append(spans, statusbar.Raw("["+ws.Name+"]"))
			} else {
				spans = append(spans, statusbar.Raw(" "+ws.Name+" "))
			}
			continue
		}

		text := " " + ws.Name + " "
		color, numbered := rainbowColor(ws.Name)
		switch {
		case ws.IsActive && numbered:
			spans = append(spans, statusbar.Span{Text: text, Fg: statusbar.ColorBlack, Bg: color})
		case ws.IsActive:
			spans = append(spans, statusbar.Span{Text: text, Fg: statusbar.ColorBlack, Bg: statusbar.ColorWhite})
		case numbered:
			spans = append(spans, statusbar.Fg(text, color))
		default:
			spans = append(spans, statusbar.Raw(text))
		}
	}
	return spans
}

// WorkspacesFactory builds WorkspacesWidgets
type WorkspacesFactory struct {
	deps Deps
}

func (f *WorkspacesFactory) Name() string { return "workspaces" }

func (f *WorkspacesFactory) Create(opts config.Options) (statusbar.Widget, error) {
	return NewWorkspacesWidget(f.deps.Compositor, f.deps), nil
}
