package statusbar

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/plugin"
)

// ConfigSource supplies the bar layout. config.Store implements it.
type ConfigSource interface {
	Load() (config.Layout, error)
	Reload() (config.Layout, error)
}

// PluginLoader produces a freshly scanned plugin set.
type PluginLoader func() (PluginSource, error)

// DirectoryLoader returns a loader that compiles every script in dir into a
// new plugin.Host.
func DirectoryLoader(dir string, opts ...plugin.Option) PluginLoader {
	return func() (PluginSource, error) {
		h := plugin.NewHost(opts...)
		if err := h.LoadFromDirectory(dir); err != nil {
			h.Close()
			return nil, err
		}
		return h, nil
	}
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the manager's logger.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithStrictInit makes a widget InitError abort the build instead of
// degrading that widget to an ErrorWidget.
func WithStrictInit(strict bool) ManagerOption {
	return func(m *Manager) {
		m.strict = strict
	}
}

// Recorder observes the runtime; metrics.Metrics implements it.
type Recorder interface {
	ObserveTick(d time.Duration, failed []string)
	ObserveReload(err error)
	ObserveBuild(widgets int, generation uint64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveTick(time.Duration, []string) {}
func (nopRecorder) ObserveReload(error) {}
func (nopRecorder) ObserveBuild(int, uint64) {}

// WithRecorder reports ticks, reloads and builds to r.
func WithRecorder(r Recorder) ManagerOption {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// Manager owns the live widget set. It is not safe for concurrent use; the
// main loop is its only caller.
type Manager struct {
	registry *Registry
	source   ConfigSource
	loader   PluginLoader
	logger   *slog.Logger
	recorder Recorder
	strict   bool

	widgets    map[string]Widget
	layout     config.Layout
	plugins    PluginSource
	failing    map[string]bool
	generation uint64
}

// NewManager creates a manager. Call Start before use.
func NewManager(registry *Registry, source ConfigSource, loader PluginLoader, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry: registry,
		source:   source,
		loader:   loader,
		logger:   slog.Default(),
		recorder: nopRecorder{},
		widgets:  make(map[string]Widget),
		failing:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "manager")
	return m
}

// Start performs the initial load and build. Any error here is fatal to the
// caller.
func (m *Manager) Start() error {
	layout, err := m.source.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	plugins, err := m.loadPlugins()
	if err != nil {
		return fmt.Errorf("load plugins: %w", err)
	}

	widgets, err := m.Build(layout, plugins)
	if err != nil {
		closeWidgets(widgets)
		closePlugins(plugins)
		return err
	}

	m.install(layout, widgets, plugins)
	m.logger.Info("widgets built", "count", len(widgets))
	return nil
}

// Build instantiates one widget per distinct name, visiting left, middle and
// right in that order. The first occurrence of a name decides its options;
// later occurrences reuse the same instance.
func (m *Manager) Build(layout config.Layout, plugins PluginSource) (map[string]Widget, error) {
	widgets := make(map[string]Widget)
	for _, region := range config.Regions {
		specs, _ := layout.Region(region)
		for _, spec := range specs {
			if _, exists := widgets[spec.Name]; exists {
				continue
			}

			w, err := m.registry.Create(spec, plugins)
			if err != nil {
				if m.strict {
					return widgets, err
				}
				m.logger.Error("widget init failed, using error widget", "name", spec.Name, "err", err)
				w = NewErrorWidget(spec.Name)
			}
			widgets[spec.Name] = w
		}
	}
	return widgets, nil
}

// Tick updates every live widget. A failing or panicking widget does not stop
// the others; all failures are returned joined.
func (m *Manager) Tick() error {
	start := time.Now()
	var errs []error
	var failed []string
	for name, w := range m.widgets {
		err := safeUpdate(name, w)
		switch {
		case err != nil && !m.failing[name]:
			m.failing[name] = true
			m.logger.Warn("widget update failed", "name", name, "err", err)
		case err == nil && m.failing[name]:
			delete(m.failing, name)
			m.logger.Info("widget recovered", "name", name)
		}
		if err != nil {
			errs = append(errs, err)
			failed = append(failed, name)
		}
	}
	m.recorder.ObserveTick(time.Since(start), failed)
	return errors.Join(errs...)
}

func safeUpdate(name string, w Widget) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("widget %s: panic in update: %v\n%s", name, r, debug.Stack())
		}
	}()
	if err := w.Update(); err != nil {
		return fmt.Errorf("widget %s: %w", name, err)
	}
	return nil
}

// Reload re-reads the configuration, rescans plugins and rebuilds every
// widget, then swaps the result in. On any failure the current state is left
// untouched.
func (m *Manager) Reload() error {
	err := m.reload()
	m.recorder.ObserveReload(err)
	return err
}

func (m *Manager) reload() error {
	layout, err := m.source.Reload()
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}

	plugins, err := m.loadPlugins()
	if err != nil {
		return fmt.Errorf("reload plugins: %w", err)
	}

	widgets, err := m.Build(layout, plugins)
	if err != nil {
		closeWidgets(widgets)
		closePlugins(plugins)
		return fmt.Errorf("rebuild widgets: %w", err)
	}

	oldWidgets, oldPlugins := m.widgets, m.plugins
	m.install(layout, widgets, plugins)
	closeWidgets(oldWidgets)
	closePlugins(oldPlugins)

	m.logger.Info("reloaded", "widgets", len(widgets), "generation", m.generation)
	return nil
}

func (m *Manager) install(layout config.Layout, widgets map[string]Widget, plugins PluginSource) {
	m.layout = layout
	m.widgets = widgets
	m.plugins = plugins
	m.failing = make(map[string]bool)
	m.generation++
	m.recorder.ObserveBuild(len(widgets), m.generation)
}

func (m *Manager) loadPlugins() (PluginSource, error) {
	if m.loader == nil {
		return nil, nil
	}
	return m.loader()
}

// Region returns the widgets of a region in display order. Names without a
// live widget are skipped.
func (m *Manager) Region(name string) []Widget {
	specs, ok := m.layout.Region(name)
	if !ok {
		return nil
	}
	out := make([]Widget, 0, len(specs))
	for _, spec := range specs {
		if w, ok := m.widgets[spec.Name]; ok {
			out = append(out, w)
		}
	}
	return out
}

// Widget looks up a live widget by name.
func (m *Manager) Widget(name string) (Widget, bool) {
	w, ok := m.widgets[name]
	return w, ok
}

// Len returns the number of live widgets
func (m *Manager) Len() int {
	return len(m.widgets)
}

// Colorize returns the active colorize flag
func (m *Manager) Colorize() bool {
	return m.layout.Colorize
}

// Layout returns the active layout
func (m *Manager) Layout() config.Layout {
	return m.layout
}

// Generation counts successful builds; it increases by one per swap.
func (m *Manager) Generation() uint64 {
	return m.generation
}

// Close releases the live widgets and plugins.
func (m *Manager) Close() error {
	closeWidgets(m.widgets)
	closePlugins(m.plugins)
	m.widgets = make(map[string]Widget)
	m.plugins = nil
	return nil
}

func closeWidgets(widgets map[string]Widget) {
	for _, w := range widgets {
		if c, ok := w.(io.Closer); ok {
			c.Close()
		}
	}
}

func closePlugins(p PluginSource) {
	if c, ok := p.(io.Closer); ok {
		c.Close()
	}
}
