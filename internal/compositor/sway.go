package compositor

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/joshuarubin/go-sway"
)

// Sway queries sway over its IPC socket.
type Sway struct {
	mu     sync.Mutex
	client sway.Client
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSway creates a Sway client. The IPC connection is opened on first use.
func NewSway() *Sway {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sway{ctx: ctx, cancel: cancel}
}

func (s *Sway) conn() (sway.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	c, err := sway.New(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to sway: %w", err)
	}
	s.client = c
	return c, nil
}

// reset drops the cached connection so the next call reconnects.
func (s *Sway) reset() {
	s.mu.Lock()
	s.client = nil
	s.mu.Unlock()
}

// Workspaces lists workspaces ordered by number.
func (s *Sway) Workspaces(ctx context.Context) ([]Workspace, error) {
	c, err := s.conn()
	if err != nil {
		return nil, err
	}
	raw, err := c.GetWorkspaces(ctx)
	if err != nil {
		s.reset()
		return nil, fmt.Errorf("get workspaces: %w", err)
	}
	out := make([]Workspace, len(raw))
	for i, ws := range raw {
		out[i] = Workspace{ID: ws.Num, Name: ws.Name, IsActive: ws.Focused}
	}
	sortWorkspaces(out)
	return out, nil
}

// ActiveWorkspace returns the focused workspace number.
func (s *Sway) ActiveWorkspace(ctx context.Context) (int64, bool, error) {
	wss, err := s.Workspaces(ctx)
	if err != nil {
		return 0, false, err
	}
	for _, ws := range wss {
		if ws.IsActive {
			return ws.ID, true, nil
		}
	}
	return 0, false, nil
}

func (s *Sway) tree(ctx context.Context) (*sway.Node, error) {
	c, err := s.conn()
	if err != nil {
		return nil, err
	}
	root, err := c.GetTree(ctx)
	if err != nil {
		s.reset()
		return nil, fmt.Errorf("get tree: %w", err)
	}
	return root, nil
}

// Windows lists every view in the layout tree.
func (s *Sway) Windows(ctx context.Context) ([]Window, error) {
	root, err := s.tree(ctx)
	if err != nil {
		return nil, err
	}
	var out []Window
	walkViews(root, func(n *sway.Node) {
		out = append(out, viewWindow(n))
	})
	return out, nil
}

// ActiveWindow returns the focused view's ID.
func (s *Sway) ActiveWindow(ctx context.Context) (string, bool, error) {
	root, err := s.tree(ctx)
	if err != nil {
		return "", false, err
	}
	var id string
	walkViews(root, func(n *sway.Node) {
		if n.Focused {
			id = strconv.FormatInt(n.ID, 10)
		}
	})
	return id, id != "", nil
}

// Close drops the IPC connection.
func (s *Sway) Close() error {
	s.cancel()
	s.reset()
	return nil
}

// walkViews calls fn for every leaf container holding a client.
func walkViews(n *sway.Node, fn func(*sway.Node)) {
	if n == nil {
		return
	}
	isView := n.AppID != nil || n.WindowProperties != nil
	if isView && len(n.Nodes) == 0 {
		fn(n)
	}
	for _, c := range n.Nodes {
		walkViews(c, fn)
	}
	for _, c := range n.FloatingNodes {
		walkViews(c, fn)
	}
}

func viewWindow(n *sway.Node) Window {
	w := Window{ID: strconv.FormatInt(n.ID, 10), Title: n.Name}
	switch {
	case n.AppID != nil && *n.AppID != "":
		w.Class = *n.AppID
	case n.WindowProperties != nil:
		w.Class = n.WindowProperties.Class
	}
	return w
}

func sortWorkspaces(wss []Workspace) {
	sort.SliceStable(wss, func(i, j int) bool { return wss[i].ID < wss[j].ID })
}
