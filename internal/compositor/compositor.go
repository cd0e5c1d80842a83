// Package compositor queries the running Wayland compositor for workspaces
// and windows. Backends shell out to the compositor's CLI or speak its IPC
// protocol; Detect picks one from the environment.
package compositor

import (
	"context"
	"log/slog"
	"os"
)

// Workspace is one compositor workspace.
type Workspace struct {
	ID       int64
	Name     string
	IsActive bool
}

// Window is one toplevel window.
type Window struct {
	ID    string
	Title string
	Class string
}

// Client is the query surface the bar needs from a compositor.
type Client interface {
	Workspaces(ctx context.Context) ([]Workspace, error)
	Windows(ctx context.Context) ([]Window, error)
	// ActiveWorkspace returns false when no workspace is focused.
	ActiveWorkspace(ctx context.Context) (int64, bool, error)
	// ActiveWindow returns false when no window is focused.
	ActiveWindow(ctx context.Context) (string, bool, error)
}

// Detect returns the backend for the compositor named by the environment:
// HYPRLAND_INSTANCE_SIGNATURE selects Hyprland, SWAYSOCK selects Sway. With
// neither set it returns a Null client.
func Detect(logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	switch {
	case os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "":
		logger.Info("using compositor backend", "backend", "hyprland")
		return NewHyprland()
	case os.Getenv("SWAYSOCK") != "":
		logger.Info("using compositor backend", "backend", "sway")
		return NewSway()
	default:
		logger.Warn("no supported compositor detected")
		return Null{}
	}
}

// Null reports no workspaces and no windows.
type Null struct{}

func (Null) Workspaces(context.Context) ([]Workspace, error) { return nil, nil }

func (Null) Windows(context.Context) ([]Window, error) { return nil, nil }

func (Null) ActiveWorkspace(context.Context) (int64, bool, error) { return 0, false, nil }

func (Null) ActiveWindow(context.Context) (string, bool, error) { return "", false, nil }
