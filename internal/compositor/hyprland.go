package compositor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner runs a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec, dropping LD_PRELOAD from the child
// environment.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	env := os.Environ()
	for i, e := range env {
		if strings.HasPrefix(e, "LD_PRELOAD=") {
			env = append(env[:i], env[i+1:]...)
			break
		}
	}
	cmd.Env = env
	return cmd.Output()
}

// Hyprland queries hyprctl's JSON output.
type Hyprland struct {
	run Runner
}

// NewHyprland creates a Hyprland client backed by hyprctl.
func NewHyprland() *Hyprland {
	return &Hyprland{run: ExecRunner}
}

// NewHyprlandWithRunner creates a Hyprland client with a custom runner.
func NewHyprlandWithRunner(run Runner) *Hyprland {
	return &Hyprland{run: run}
}

type hyprWorkspace struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type hyprClient struct {
	Address   string `json:"address"`
	Class     string `json:"class"`
	Title     string `json:"title"`
	Workspace struct {
		ID int64 `json:"id"`
	} `json:"workspace"`
}

func (h *Hyprland) query(ctx context.Context, what string, v any) error {
	out, err := h.run(ctx, "hyprctl", what, "-j")
	if err != nil {
		return fmt.Errorf("hyprctl %s: %w", what, err)
	}
	if err := json.Unmarshal(out, v); err != nil {
		return fmt.Errorf("hyprctl %s: decode: %w", what, err)
	}
	return nil
}

// Workspaces lists regular workspaces ordered as hyprctl reports them.
// Special workspaces (negative IDs) are skipped.
func (h *Hyprland) Workspaces(ctx context.Context) ([]Workspace, error) {
	var raw []hyprWorkspace
	if err := h.query(ctx, "workspaces", &raw); err != nil {
		return nil, err
	}
	active, hasActive, err := h.ActiveWorkspace(ctx)
	if err != nil {
		hasActive = false
	}

	out := make([]Workspace, 0, len(raw))
	for _, ws := range raw {
		if ws.ID <= 0 {
			continue
		}
		out = append(out, Workspace{
			ID:       ws.ID,
			Name:     ws.Name,
			IsActive: hasActive && ws.ID == active,
		})
	}
	sortWorkspaces(out)
	return out, nil
}

// Windows lists clients on regular workspaces.
func (h *Hyprland) Windows(ctx context.Context) ([]Window, error) {
	var raw []hyprClient
	if err := h.query(ctx, "clients", &raw); err != nil {
		return nil, err
	}
	out := make([]Window, 0, len(raw))
	for _, c := range raw {
		if c.Workspace.ID <= 0 {
			continue
		}
		out = append(out, Window{ID: c.Address, Title: c.Title, Class: c.Class})
	}
	return out, nil
}

// ActiveWorkspace returns the focused workspace ID.
func (h *Hyprland) ActiveWorkspace(ctx context.Context) (int64, bool, error) {
	var ws hyprWorkspace
	if err := h.query(ctx, "activeworkspace", &ws); err != nil {
		return 0, false, err
	}
	return ws.ID, ws.ID != 0, nil
}

// ActiveWindow returns the focused client address.
func (h *Hyprland) ActiveWindow(ctx context.Context) (string, bool, error) {
	var c hyprClient
	if err := h.query(ctx, "activewindow", &c); err != nil {
		return "", false, err
	}
	return c.Address, c.Address != "", nil
}
