// Package plugin hosts user widgets written in Lua. Each script file in the
// components directory is compiled into its own interpreter and must return a
// table with a render function and, optionally, an update function.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Extension is the file extension recognized as a plugin script.
const Extension = ".lua"

// ErrNoRender is returned when a script's table has no render function.
var ErrNoRender = errors.New("component table has no render function")

// Result is the outcome of a render call.
type Result struct {
	Text string
	// Color is the color name returned by the script, empty if none.
	Color string
	// Failed is set when the call errored or returned an unusable value;
	// Text then holds the error marker.
	Failed bool
}

// ErrorMarker is the text rendered for a plugin whose render call failed.
func ErrorMarker(name string) string {
	return "❌ " + name
}

// Definition is one compiled plugin script.
type Definition struct {
	name    string
	path    string
	timeout time.Duration

	mu     sync.Mutex
	state  *lua.LState
	update *lua.LFunction
	render *lua.LFunction
	// stale is set while the last update call failed.
	stale bool
}

// Name returns the plugin name (the script filename without extension).
func (d *Definition) Name() string {
	return d.name
}

// Path returns the script path
func (d *Definition) Path() string {
	return d.path
}

// HasUpdate reports whether the script defines an update hook.
func (d *Definition) HasUpdate() bool {
	return d.update != nil
}

// Update calls the script's update hook. Scripts without one are a no-op.
// Until a later call succeeds, Render returns the error marker.
func (d *Definition) Update() error {
	if d.update == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == nil {
		return fmt.Errorf("plugin %s: closed", d.name)
	}
	cancel := d.bound()
	defer cancel()

	if err := d.state.CallByParam(lua.P{Fn: d.update, NRet: 0, Protect: true}); err != nil {
		d.stale = true
		return fmt.Errorf("plugin %s: update: %w", d.name, err)
	}
	d.stale = false
	return nil
}

// Render calls the script's render hook. It never fails: errors, a failed
// update and unrecognized return values produce a Result carrying
// ErrorMarker.
func (d *Definition) Render(colorize bool) Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	failed := Result{Text: ErrorMarker(d.name), Failed: true}
	if d.state == nil || d.stale {
		return failed
	}
	cancel := d.bound()
	defer cancel()

	L := d.state
	if err := L.CallByParam(lua.P{Fn: d.render, NRet: 1, Protect: true}, lua.LBool(colorize)); err != nil {
		return failed
	}
	ret := L.Get(-1)
	L.Pop(1)

	switch v := ret.(type) {
	case lua.LString:
		return Result{Text: string(v)}
	case lua.LNumber:
		return Result{Text: v.String()}
	case *lua.LTable:
		text, color := v.RawGetInt(1), v.RawGetInt(2)
		if text == lua.LNil {
			text, color = v.RawGetString("text"), v.RawGetString("color")
		}
		s, ok := text.(lua.LString)
		if !ok {
			return failed
		}
		res := Result{Text: string(s)}
		if c, ok := color.(lua.LString); ok {
			res.Color = string(c)
		}
		return res
	default:
		return failed
	}
}

// bound attaches a deadline to the interpreter for the duration of one call.
func (d *Definition) bound() func() {
	if d.timeout <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	d.state.SetContext(ctx)
	return func() {
		d.state.RemoveContext()
		cancel()
	}
}

// Close releases the interpreter.
func (d *Definition) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != nil {
		d.state.Close()
		d.state = nil
	}
}

// Compile loads one script and extracts its hooks.
func Compile(name, path string, timeout time.Duration) (*Definition, error) {
	L := lua.NewState()

	fn, err := L.LoadFile(path)
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}

	if timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		L.SetContext(ctx)
		defer func() {
			L.RemoveContext()
			cancel()
		}()
	}

	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		L.Close()
		return nil, fmt.Errorf("evaluate %s: %w", path, err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("%s: script returned %s, expected a table", path, ret.Type())
	}

	render, ok := tbl.RawGetString("render").(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNoRender)
	}
	update, _ := tbl.RawGetString("update").(*lua.LFunction)

	return &Definition{
		name:    name,
		path:    path,
		timeout: timeout,
		state:   L,
		update:  update,
		render:  render,
	}, nil
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger used to report scripts that fail to load.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		h.logger = l
	}
}

// WithCallTimeout bounds every call into a script. Zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.timeout = d
	}
}

// Host is a registry of compiled plugin scripts.
type Host struct {
	logger  *slog.Logger
	timeout time.Duration
	defs    map[string]*Definition
}

// NewHost creates an empty host.
func NewHost(opts ...Option) *Host {
	h := &Host{
		logger: slog.Default(),
		defs:   make(map[string]*Definition),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "plugin")
	return h
}

// LoadFromDirectory compiles every script in dir. A missing directory is not
// an error. A script that fails to compile, or has no render function, is
// logged and skipped.
func (h *Host) LoadFromDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read components dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != Extension {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), Extension)
		path := filepath.Join(dir, entry.Name())

		def, err := Compile(name, path, h.timeout)
		if err != nil {
			h.logger.Warn("skipping plugin", "name", name, "err", err)
			continue
		}
		if old, ok := h.defs[name]; ok {
			old.Close()
		}
		h.defs[name] = def
		h.logger.Debug("loaded plugin", "name", name, "update", def.HasUpdate())
	}

	return nil
}

// Component looks up a plugin by name.
func (h *Host) Component(name string) (*Definition, bool) {
	def, ok := h.defs[name]
	return def, ok
}

// Names returns the loaded plugin names, sorted.
func (h *Host) Names() []string {
	names := make([]string, 0, len(h.defs))
	for name := range h.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases every interpreter.
func (h *Host) Close() error {
	for _, def := range h.defs {
		def.Close()
	}
	h.defs = make(map[string]*Definition)
	return nil
}
