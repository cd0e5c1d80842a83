package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EntryShapes(t *testing.T) {
	doc := `{
	  "bars": {
	    "left": ["workspaces", {"name": "cpu", "sparkline": true, "sparkline_length": 12}],
	    "middle": [{"component": "wifi", "sparkline_update_freq": 7, "unknown": "ignored"}],
	    "right": [42, {"sparkline": true}, null]
	  },
	  "colorize": false
	}`

	layout, err := Parse([]byte(doc), FormatJSON)
	require.NoError(t, err)

	assert.False(t, layout.Colorize)
	require.Len(t, layout.Left, 2)
	assert.Equal(t, WidgetSpec{Name: "workspaces"}, layout.Left[0])
	assert.Equal(t, "cpu", layout.Left[1].Name)
	assert.True(t, layout.Left[1].Options.Bool(OptSparkline, false))
	assert.Equal(t, 12, layout.Left[1].Options.Int(OptSparklineLength, 10))

	require.Len(t, layout.Middle, 1)
	assert.Equal(t, "wifi", layout.Middle[0].Name)
	assert.Equal(t, 7*time.Second, layout.Middle[0].Options.Seconds(OptSparklineUpdateFreq, time.Second))

	require.Len(t, layout.Right, 3)
	for _, s := range layout.Right {
		assert.Empty(t, s.Name)
	}
	assert.Error(t, layout.Validate())
}

func TestParse_Defaults(t *testing.T) {
	layout, err := Parse([]byte(`{"bars": {"left": ["time"]}}`), FormatJSON)
	require.NoError(t, err)
	assert.True(t, layout.Colorize)
	assert.Empty(t, layout.Middle)
	assert.Empty(t, layout.Right)
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"not json":        `{"bars":`,
		"no bars":         `{"colorize": true}`,
		"region not list": `{"bars": {"left": "time"}}`,
		"bad colorize":    `{"bars": {}, "colorize": "yes"}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), FormatJSON)
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte(`{"colorize": true}`), FormatJSON)
	assert.ErrorIs(t, err, ErrNoBars)
}

func TestParse_TOMLMatchesJSON(t *testing.T) {
	jsonDoc := `{"bars": {"left": ["time", {"name": "cpu", "sparkline": true, "sparkline_length": 5}], "middle": [], "right": ["ram"]}, "colorize": true}`
	tomlDoc := `
colorize = true

[bars]
left = ["time", { name = "cpu", sparkline = true, sparkline_length = 5 }]
middle = []
right = ["ram"]
`
	fromJSON, err := Parse([]byte(jsonDoc), FormatJSON)
	require.NoError(t, err)
	fromTOML, err := Parse([]byte(tomlDoc), FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, fromJSON.Names(), fromTOML.Names())
	assert.Equal(t, fromJSON.Colorize, fromTOML.Colorize)
	for i := range fromJSON.Left {
		a, b := fromJSON.Left[i].Options, fromTOML.Left[i].Options
		assert.Equal(t, a.Bool(OptSparkline, false), b.Bool(OptSparkline, false))
		assert.Equal(t, a.Int(OptSparklineLength, 10), b.Int(OptSparklineLength, 10))
	}
}

func TestParse_YAMLMatchesJSON(t *testing.T) {
	jsonDoc := `{"bars": {"left": ["time", {"component": "cpu", "sparkline_length": 5}], "right": ["ram"]}, "colorize": false}`
	yamlDoc := `
colorize: false
bars:
  left:
    - time
    - component: cpu
      sparkline_length: 5
  right: [ram]
`
	fromJSON, err := Parse([]byte(jsonDoc), FormatJSON)
	require.NoError(t, err)
	fromYAML, err := Parse([]byte(yamlDoc), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, fromJSON.Names(), fromYAML.Names())
	assert.False(t, fromYAML.Colorize)
	assert.Equal(t, 5, fromYAML.Left[1].Options.Int(OptSparklineLength, 10))
	assert.Empty(t, fromYAML.Middle)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFor("bar.json"))
	assert.Equal(t, FormatJSON, FormatFor("bar"))
	assert.Equal(t, FormatTOML, FormatFor("bar.TOML"))
	assert.Equal(t, FormatYAML, FormatFor("bar.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("bar.yml"))
}

func TestOptions_Coercion(t *testing.T) {
	opts := Options{
		"b":     "true",
		"bad":   "maybe",
		"f":     2.5,
		"neg":   -3,
		"s":     12,
		"whole": 4.0,
		"str":   "7",
		"word":  "seven",
		"nil":   nil,
		"obj":   map[string]any{"a": 1},
	}
	assert.True(t, opts.Bool("b", false))
	assert.True(t, opts.Bool("bad", true))
	assert.False(t, opts.Bool("missing", false))
	assert.True(t, opts.Bool("nil", true))
	assert.Equal(t, 2, opts.Int("f", 9))
	assert.Equal(t, 4, opts.Int("whole", 9))
	assert.Equal(t, 7, opts.Int("str", 9))
	assert.Equal(t, 9, opts.Int("word", 9))
	assert.Equal(t, 9, opts.Int("nil", 9))
	assert.Equal(t, time.Minute, opts.Seconds("neg", time.Minute))
	assert.Equal(t, "12", opts.String("s", "x"))
	assert.Equal(t, "x", opts.String("obj", "x"))
	assert.Equal(t, "x", opts.String("missing", "x"))

	var nilOpts Options
	assert.Equal(t, 10, nilOpts.Int(OptSparklineLength, 10))
}

func TestLayout_Names(t *testing.T) {
	layout := Layout{
		Left:   names("a", "b"),
		Middle: names("b", "c"),
		Right:  names("a", "d"),
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, layout.Names())

	_, ok := layout.Region("top")
	assert.False(t, ok)
}

func TestStore_LoadWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catfood", "bar.json")
	store := NewStore(path)

	layout, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultLayout().Names(), layout.Names())
	assert.FileExists(t, path)

	again, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, layout, again)
}

func TestStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bar.json")
	store := NewStore(path)
	require.NoError(t, os.WriteFile(path, []byte(`{"bars": {"left": ["time"]}, "colorize": false}`), 0644))

	layout, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"time"}, layout.Names())

	require.NoError(t, os.WriteFile(path, []byte(`{"bars": {"right": ["cpu"]}}`), 0644))
	layout, err = store.Reload()
	require.NoError(t, err)
	assert.Equal(t, []string{"cpu"}, layout.Names())

	require.NoError(t, os.WriteFile(path, []byte(`{"bars": [`), 0644))
	_, err = store.Reload()
	assert.Error(t, err)

	require.NoError(t, os.Remove(path))
	layout, err = store.Reload()
	require.NoError(t, err)
	assert.Equal(t, DefaultLayout(), layout)
	assert.NoFileExists(t, path)
}

func TestStore_LoadMalformedIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bar.json")
	require.NoError(t, os.WriteFile(path, []byte(`nope`), 0644))
	_, err := NewStore(path).Load()
	assert.Error(t, err)
}

func TestStore_SaveRoundTripTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bar.toml")
	store := NewStore(path)

	want := Layout{
		Left:     []WidgetSpec{{Name: "cpu", Options: Options{OptSparkline: true}}},
		Right:    names("time"),
		Colorize: false,
	}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want.Names(), got.Names())
	assert.True(t, got.Left[0].Options.Bool(OptSparkline, false))
	assert.False(t, got.Colorize)
}

func TestStore_SaveRoundTripYAML(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "bar.yaml"))

	want := Layout{
		Left:     names("workspaces"),
		Middle:   []WidgetSpec{{Name: "wifi", Options: Options{OptSparkline: true, OptSparklineLength: 8}}},
		Colorize: true,
	}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want.Names(), got.Names())
	assert.Equal(t, 8, got.Middle[0].Options.Int(OptSparklineLength, 10))
	assert.True(t, got.Colorize)
}

func TestValidateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bar.json")
	_, err := ValidateFile(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"bars": {"left": ["time", {"sparkline": true}]}}`), 0644))
	_, err = ValidateFile(path)
	assert.ErrorContains(t, err, "bars.left[1]")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config/catfood"), ExpandPath("~/.config/catfood"))
	assert.Equal(t, "/etc/x", ExpandPath("/etc/x"))
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("CATBAR_TICK_INTERVAL", "500ms")
	t.Setenv("CATBAR_STRICT_INIT", "true")

	s, err := LoadSettings(viper.New())
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, s.TickInterval)
	assert.True(t, s.StrictInit)
	assert.Equal(t, 250*time.Millisecond, s.Debounce)
	assert.True(t, filepath.IsAbs(s.ConfigPath))
	assert.Equal(t, "bar.json", filepath.Base(s.ConfigPath))
}

func TestLoadSettingsRuntimePaths(t *testing.T) {
	runtime := t.TempDir()
	data := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtime)
	t.Setenv("XDG_DATA_HOME", data)

	s, err := LoadSettings(viper.New())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(runtime, "catbar.sock"), s.SocketPath)
	assert.Equal(t, filepath.Join(data, "catfood", "bar.pid"), s.PIDFile)
}
