package statusbar

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/plugin"
)

// stubWidget renders its name and the "label" option it was built with.
type stubWidget struct {
	name    string
	label   string
	updates int
	err     error
	panics  bool
	closed  bool
}

func (w *stubWidget) Update() error {
	w.updates++
	if w.panics {
		panic("stub exploded")
	}
	return w.err
}

func (w *stubWidget) Render(colorize bool) []Span {
	return []Span{Raw(w.name + ":" + w.label)}
}

func (w *stubWidget) Close() error {
	w.closed = true
	return nil
}

type stubFactory struct {
	name    string
	initErr error
	built   []*stubWidget
}

func (f *stubFactory) Name() string { return f.name }

func (f *stubFactory) Create(opts config.Options) (Widget, error) {
	if f.initErr != nil {
		return nil, &InitError{Widget: f.name, Err: f.initErr}
	}
	w := &stubWidget{name: f.name, label: opts.String("label", "default")}
	f.built = append(f.built, w)
	return w, nil
}

type stubSource struct {
	layout    config.Layout
	next      config.Layout
	reloadErr error
	reloads   int
}

func (s *stubSource) Load() (config.Layout, error) { return s.layout, nil }

func (s *stubSource) Reload() (config.Layout, error) {
	s.reloads++
	if s.reloadErr != nil {
		return config.Layout{}, s.reloadErr
	}
	return s.next, nil
}

func spec(name string, opts config.Options) config.WidgetSpec {
	return config.WidgetSpec{Name: name, Options: opts}
}

func newStubRegistry(t *testing.T, names ...string) (*Registry, map[string]*stubFactory) {
	t.Helper()
	reg := NewRegistry(nil)
	factories := make(map[string]*stubFactory)
	for _, n := range names {
		f := &stubFactory{name: n}
		require.NoError(t, reg.Register(f))
		factories[n] = f
	}
	return reg, factories
}

func regionText(m *Manager, region string) []string {
	var out []string
	for _, w := range m.Region(region) {
		out = append(out, Text(RenderWidget(w, m.Colorize())))
	}
	return out
}

func TestBuild_SharesInstanceAcrossRegions(t *testing.T) {
	reg, factories := newStubRegistry(t, "workspaces", "time")
	src := &stubSource{layout: config.Layout{
		Left:   []config.WidgetSpec{spec("workspaces", nil)},
		Middle: []config.WidgetSpec{spec("time", nil)},
		Right:  []config.WidgetSpec{spec("time", nil)},
	}}

	m := NewManager(reg, src, nil)
	require.NoError(t, m.Start())

	assert.Len(t, factories["time"].built, 1)
	assert.Equal(t, 2, m.Len())

	middle := m.Region(config.RegionMiddle)
	right := m.Region(config.RegionRight)
	require.Len(t, middle, 1)
	require.Len(t, right, 1)

	direct, ok := m.Widget("time")
	require.True(t, ok)
	assert.Same(t, middle[0], right[0])
	assert.Same(t, middle[0], direct)
}

func TestBuild_FirstOccurrenceWins(t *testing.T) {
	reg, factories := newStubRegistry(t, "cpu")
	layout := config.Layout{
		Left:   []config.WidgetSpec{spec("other", nil)},
		Middle: []config.WidgetSpec{spec("cpu", config.Options{"label": "middle"})},
		Right: []config.WidgetSpec{
			spec("cpu", config.Options{"label": "right"}),
			spec("cpu", config.Options{"label": "right-again"}),
		},
	}

	m := NewManager(reg, &stubSource{layout: layout}, nil)
	widgets, err := m.Build(layout, nil)
	require.NoError(t, err)

	require.Len(t, factories["cpu"].built, 1)
	assert.Equal(t, "middle", widgets["cpu"].(*stubWidget).label)
}

func TestBuild_LeftBeatsRightWhenLeftIsLater(t *testing.T) {
	reg, _ := newStubRegistry(t, "cpu")
	layout := config.Layout{
		Left:  []config.WidgetSpec{spec("cpu", config.Options{"label": "left"})},
		Right: []config.WidgetSpec{spec("cpu", config.Options{"label": "right"})},
	}

	m := NewManager(reg, &stubSource{layout: layout}, nil)
	widgets, err := m.Build(layout, nil)
	require.NoError(t, err)
	assert.Equal(t, "left", widgets["cpu"].(*stubWidget).label)
}

func TestBuild_UnknownNamesBecomeErrorWidgets(t *testing.T) {
	reg, _ := newStubRegistry(t, "time")
	layout := config.Layout{
		Left: []config.WidgetSpec{spec("nope", nil), spec("", nil), spec("time", nil)},
	}

	m := NewManager(reg, &stubSource{layout: layout}, nil)
	require.NoError(t, m.Start())

	got := regionText(m, config.RegionLeft)
	assert.Equal(t, []string{ErrorGlyph, ErrorGlyph, "time:default"}, got)
}

func TestBuild_InitErrorPolicy(t *testing.T) {
	layout := config.Layout{Right: []config.WidgetSpec{spec("battery", nil), spec("time", nil)}}

	t.Run("degrades by default", func(t *testing.T) {
		reg, factories := newStubRegistry(t, "battery", "time")
		factories["battery"].initErr = errors.New("no battery found")

		m := NewManager(reg, &stubSource{layout: layout}, nil)
		require.NoError(t, m.Start())

		w, ok := m.Widget("battery")
		require.True(t, ok)
		assert.IsType(t, &ErrorWidget{}, w)
	})

	t.Run("strict aborts", func(t *testing.T) {
		reg, factories := newStubRegistry(t, "battery", "time")
		factories["battery"].initErr = errors.New("no battery found")

		m := NewManager(reg, &stubSource{layout: layout}, nil, WithStrictInit(true))
		err := m.Start()
		require.Error(t, err)

		var initErr *InitError
		assert.ErrorAs(t, err, &initErr)
		assert.Equal(t, "battery", initErr.Widget)
	})
}

func TestBuild_Idempotent(t *testing.T) {
	reg, _ := newStubRegistry(t, "a", "b")
	layout := config.Layout{
		Left:  []config.WidgetSpec{spec("a", config.Options{"label": "x"})},
		Right: []config.WidgetSpec{spec("b", nil), spec("a", nil)},
	}
	m := NewManager(reg, &stubSource{layout: layout}, nil)

	first, err := m.Build(layout, nil)
	require.NoError(t, err)
	second, err := m.Build(layout, nil)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for name, w := range first {
		assert.Equal(t, w.Render(true), second[name].Render(true), name)
		assert.NotSame(t, w, second[name])
	}
}

func TestTick_FailuresDoNotStopOthers(t *testing.T) {
	reg, factories := newStubRegistry(t, "ok", "bad", "boom")
	layout := config.Layout{Left: []config.WidgetSpec{spec("ok", nil), spec("bad", nil), spec("boom", nil)}}

	m := NewManager(reg, &stubSource{layout: layout}, nil)
	require.NoError(t, m.Start())

	factories["bad"].built[0].err = errors.New("sampler down")
	factories["boom"].built[0].panics = true

	err := m.Tick()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sampler down")
	assert.Contains(t, err.Error(), "panic")

	for name, f := range factories {
		assert.Equal(t, 1, f.built[0].updates, name)
	}

	factories["bad"].built[0].err = nil
	factories["boom"].built[0].panics = false
	assert.NoError(t, m.Tick())
}

func TestReload_SwapsEverything(t *testing.T) {
	reg, factories := newStubRegistry(t, "time", "cpu")
	src := &stubSource{
		layout: config.Layout{Middle: []config.WidgetSpec{spec("time", nil)}, Colorize: true},
		next:   config.Layout{Right: []config.WidgetSpec{spec("cpu", nil), spec("time", nil)}},
	}

	m := NewManager(reg, src, nil)
	require.NoError(t, m.Start())
	old, _ := m.Widget("time")

	require.NoError(t, m.Reload())

	assert.Equal(t, uint64(2), m.Generation())
	assert.False(t, m.Colorize())
	assert.Empty(t, m.Region(config.RegionMiddle))
	assert.Equal(t, []string{"cpu:default", "time:default"}, regionText(m, config.RegionRight))

	fresh, _ := m.Widget("time")
	assert.NotSame(t, old, fresh)
	assert.True(t, old.(*stubWidget).closed)
	assert.Len(t, factories["time"].built, 2)
}

func TestReload_FailedReadKeepsState(t *testing.T) {
	reg, _ := newStubRegistry(t, "time", "cpu")
	src := &stubSource{
		layout: config.Layout{
			Left:  []config.WidgetSpec{spec("time", config.Options{"label": "L"})},
			Right: []config.WidgetSpec{spec("cpu", nil)},
		},
		reloadErr: errors.New("unexpected end of JSON input"),
	}

	m := NewManager(reg, src, nil)
	require.NoError(t, m.Start())

	before := map[string][]string{}
	for _, r := range config.Regions {
		before[r] = regionText(m, r)
	}
	beforeWidget, _ := m.Widget("time")

	require.Error(t, m.Reload())

	for _, r := range config.Regions {
		assert.Equal(t, before[r], regionText(m, r), r)
	}
	afterWidget, _ := m.Widget("time")
	assert.Same(t, beforeWidget, afterWidget)
	assert.False(t, beforeWidget.(*stubWidget).closed)
	assert.Equal(t, uint64(1), m.Generation())
}

func TestReload_FailedBuildKeepsState(t *testing.T) {
	reg, factories := newStubRegistry(t, "time", "battery")
	src := &stubSource{
		layout: config.Layout{Left: []config.WidgetSpec{spec("time", nil)}},
		next:   config.Layout{Left: []config.WidgetSpec{spec("time", nil), spec("battery", nil)}},
	}

	m := NewManager(reg, src, nil, WithStrictInit(true))
	require.NoError(t, m.Start())
	factories["battery"].initErr = errors.New("no battery")

	require.Error(t, m.Reload())

	assert.Equal(t, []string{"time:default"}, regionText(m, config.RegionLeft))
	assert.Len(t, factories["time"].built, 2)
	assert.True(t, factories["time"].built[1].closed, "partial build is released")
	assert.False(t, factories["time"].built[0].closed)
}

func TestReload_RescansPlugins(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "greet.lua")
	require.NoError(t, os.WriteFile(script, []byte(`return { render = function(c) return "v1" end }`), 0644))

	reg, _ := newStubRegistry(t)
	layout := config.Layout{Left: []config.WidgetSpec{spec("greet", nil)}}
	src := &stubSource{layout: layout, next: layout}

	m := NewManager(reg, src, DirectoryLoader(dir))
	require.NoError(t, m.Start())
	defer m.Close()
	assert.Equal(t, []string{"v1"}, regionText(m, config.RegionLeft))

	require.NoError(t, os.WriteFile(script, []byte(`return { render = function(c) return { "v2", "red" } end }`), 0644))
	require.NoError(t, m.Reload())

	spans := RenderWidget(m.Region(config.RegionLeft)[0], true)
	assert.Equal(t, []Span{Fg("v2", ColorRed)}, spans)

	require.NoError(t, os.Remove(script))
	require.NoError(t, m.Reload())
	assert.Equal(t, []string{ErrorGlyph}, regionText(m, config.RegionLeft))
}

func TestPluginThatFailsToCompileFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "disk.lua"), []byte(`return {{{`), 0644))

	host := plugin.NewHost()
	require.NoError(t, host.LoadFromDirectory(dir))
	defer host.Close()

	_, ok := host.Component("disk")
	assert.False(t, ok)

	reg, _ := newStubRegistry(t)
	w, err := reg.Create(spec("disk", nil), host)
	require.NoError(t, err)
	assert.IsType(t, &ErrorWidget{}, w)
}

func TestRegion_UnknownRegion(t *testing.T) {
	reg, _ := newStubRegistry(t)
	m := NewManager(reg, &stubSource{}, nil)
	require.NoError(t, m.Start())
	assert.Nil(t, m.Region("top"))
}

type recordedTick struct {
	failed []string
}

type fakeRecorder struct {
	ticks   []recordedTick
	reloads []error
	builds  [][2]uint64
}

func (r *fakeRecorder) ObserveTick(_ time.Duration, failed []string) {
	r.ticks = append(r.ticks, recordedTick{failed: failed})
}

func (r *fakeRecorder) ObserveReload(err error) { r.reloads = append(r.reloads, err) }

func (r *fakeRecorder) ObserveBuild(widgets int, generation uint64) {
	r.builds = append(r.builds, [2]uint64{uint64(widgets), generation})
}

func TestRecorderObservesRuntime(t *testing.T) {
	reg, factories := newStubRegistry(t, "time", "cpu")
	src := &stubSource{
		layout: config.Layout{Left: []config.WidgetSpec{spec("time", nil), spec("cpu", nil)}},
		next:   config.Layout{Left: []config.WidgetSpec{spec("time", nil)}},
	}
	rec := &fakeRecorder{}

	m := NewManager(reg, src, nil, WithRecorder(rec))
	require.NoError(t, m.Start())

	factories["cpu"].built[0].err = errors.New("sampler down")
	require.Error(t, m.Tick())
	require.NoError(t, m.Reload())
	src.reloadErr = errors.New("bad layout")
	require.Error(t, m.Reload())

	require.Len(t, rec.ticks, 1)
	assert.Equal(t, []string{"cpu"}, rec.ticks[0].failed)
	assert.Equal(t, [][2]uint64{{2, 1}, {1, 2}}, rec.builds)
	require.Len(t, rec.reloads, 2)
	assert.NoError(t, rec.reloads[0])
	assert.ErrorContains(t, rec.reloads[1], "bad layout")
}
