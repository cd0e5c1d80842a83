package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Region names, in build priority order.
const (
	RegionLeft   = "left"
	RegionMiddle = "middle"
	RegionRight  = "right"
)

// Regions lists the display regions in the order widgets are built.
var Regions = []string{RegionLeft, RegionMiddle, RegionRight}

// ErrNoBars is returned when a document has no "bars" object.
var ErrNoBars = errors.New(`missing "bars" object`)

// Layout is the parsed bar document: three ordered regions plus the global
// colorize flag.
type Layout struct {
	Left     []WidgetSpec
	Middle   []WidgetSpec
	Right    []WidgetSpec
	Colorize bool
}

// DefaultLayout returns the layout written on first run.
func DefaultLayout() Layout {
	return Layout{
		Left:   names("workspaces", "windows"),
		Middle: names("time", "separator", "weather"),
		Right: names(
			"temperature", "space", "cpu", "space", "ram",
			"separator", "wifi", "separator", "brightness",
			"space", "volume", "separator", "battery",
		),
		Colorize: true,
	}
}

func names(ns ...string) []WidgetSpec {
	specs := make([]WidgetSpec, len(ns))
	for i, n := range ns {
		specs[i] = WidgetSpec{Name: n}
	}
	return specs
}

// Region returns the specs of a region by name
func (l Layout) Region(name string) ([]WidgetSpec, bool) {
	switch name {
	case RegionLeft:
		return l.Left, true
	case RegionMiddle:
		return l.Middle, true
	case RegionRight:
		return l.Right, true
	default:
		return nil, false
	}
}

// Names returns every distinct widget name in left, middle, right order.
func (l Layout) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for _, region := range Regions {
		specs, _ := l.Region(region)
		for _, spec := range specs {
			if seen[spec.Name] {
				continue
			}
			seen[spec.Name] = true
			out = append(out, spec.Name)
		}
	}
	return out
}

// Validate reports entries that could not be given a name. They still load
// and render as the error widget.
func (l Layout) Validate() error {
	var errs []error
	for _, region := range Regions {
		specs, _ := l.Region(region)
		for i, spec := range specs {
			if spec.Name == "" {
				errs = append(errs, fmt.Errorf("bars.%s[%d]: entry has no name or component", region, i))
			}
		}
	}
	return errors.Join(errs...)
}

// Format is a document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatTOML
	FormatYAML
)

// FormatFor picks the encoding from a file extension: .toml, .yaml and .yml
// are recognized, anything else is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes a bar document.
func Parse(data []byte, format Format) (Layout, error) {
	var doc map[string]any
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return Layout{}, fmt.Errorf("parse toml: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Layout{}, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return Layout{}, fmt.Errorf("parse json: %w", err)
		}
	}
	return fromDocument(doc)
}

func fromDocument(doc map[string]any) (Layout, error) {
	bars, ok := doc["bars"].(map[string]any)
	if !ok {
		return Layout{}, ErrNoBars
	}

	var layout Layout
	regions := map[string]*[]WidgetSpec{
		RegionLeft:   &layout.Left,
		RegionMiddle: &layout.Middle,
		RegionRight:  &layout.Right,
	}
	for _, region := range Regions {
		raw, present := bars[region]
		if !present || raw == nil {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			return Layout{}, fmt.Errorf("bars.%s: expected a list, got %T", region, raw)
		}
		specs := make([]WidgetSpec, 0, len(list))
		for _, entry := range list {
			specs = append(specs, ParseWidgetSpec(entry))
		}
		*regions[region] = specs
	}

	layout.Colorize = true
	if raw, present := doc["colorize"]; present {
		b, ok := raw.(bool)
		if !ok {
			return Layout{}, fmt.Errorf("colorize: expected a boolean, got %T", raw)
		}
		layout.Colorize = b
	}

	return layout, nil
}

// Marshal encodes a layout in the given format.
func Marshal(l Layout, format Format) ([]byte, error) {
	doc := map[string]any{
		"bars": map[string]any{
			RegionLeft:   encodeSpecs(l.Left),
			RegionMiddle: encodeSpecs(l.Middle),
			RegionRight:  encodeSpecs(l.Right),
		},
		"colorize": l.Colorize,
	}
	switch format {
	case FormatTOML:
		return toml.Marshal(doc)
	case FormatYAML:
		return yaml.Marshal(doc)
	default:
		return json.MarshalIndent(doc, "", "  ")
	}
}

func encodeSpecs(specs []WidgetSpec) []any {
	out := make([]any, len(specs))
	for i, spec := range specs {
		out[i] = spec.encode()
	}
	return out
}

// Store loads and saves the bar document at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store for path; a leading ~ is expanded.
func NewStore(path string) *Store {
	return &Store{path: ExpandPath(path)}
}

// Path returns the absolute document path
func (s *Store) Path() string {
	return s.path
}

// Load reads the document, writing and returning DefaultLayout if it does not
// exist yet.
func (s *Store) Load() (Layout, error) {
	layout, err := s.read()
	if errors.Is(err, os.ErrNotExist) {
		layout = DefaultLayout()
		if err := s.Save(layout); err != nil {
			return Layout{}, fmt.Errorf("write default config: %w", err)
		}
		return layout, nil
	}
	return layout, err
}

// Reload re-reads the document. A deleted file yields DefaultLayout; read and
// parse failures are returned so callers can keep their current state.
func (s *Store) Reload() (Layout, error) {
	layout, err := s.read()
	if errors.Is(err, os.ErrNotExist) {
		return DefaultLayout(), nil
	}
	return layout, err
}

// Save writes the layout, creating the parent directory.
func (s *Store) Save(l Layout) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	data, err := Marshal(l, FormatFor(s.path))
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

func (s *Store) read() (Layout, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Layout{}, err
	}
	layout, err := Parse(data, FormatFor(s.path))
	if err != nil {
		return Layout{}, fmt.Errorf("%s: %w", s.path, err)
	}
	return layout, nil
}

// ExpandPath expands a leading ~ to the current user's home directory.
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
		if usr, err := user.Current(); err == nil {
			return filepath.Join(usr.HomeDir, path[1:])
		}
	}
	return path
}

// ValidateFile loads the document at path without writing defaults and
// validates it.
func ValidateFile(path string) (Layout, error) {
	path = ExpandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to load config: %w", err)
	}
	layout, err := Parse(data, FormatFor(path))
	if err != nil {
		return Layout{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := layout.Validate(); err != nil {
		return layout, fmt.Errorf("config validation failed: %w", err)
	}
	return layout, nil
}
