package config

import (
	"time"

	"github.com/spf13/cast"
)

// Option keys shared by several widget kinds.
const (
	OptSparkline            = "sparkline"
	OptSparklineLength      = "sparkline_length"
	OptSparklineUpdateFreq  = "sparkline_update_freq"
	OptSparklineLogarithmic = "sparkline_logarithmic"
	OptUpdateInterval       = "update_interval"
	OptFormat               = "format"
	OptLocation             = "location"
	OptTitleLength          = "title_length"
	OptText                 = "text"
)

// WidgetSpec names a widget and carries its raw options.
type WidgetSpec struct {
	Name    string
	Options Options
}

// ParseWidgetSpec accepts a bare name or an object carrying "name" (or
// "component"). Any other shape yields a spec with an empty name, which the
// widget registry resolves to its error widget.
func ParseWidgetSpec(v any) WidgetSpec {
	switch entry := v.(type) {
	case string:
		return WidgetSpec{Name: entry}
	case map[string]any:
		spec := WidgetSpec{}
		if name, ok := entry["name"].(string); ok {
			spec.Name = name
		} else if name, ok := entry["component"].(string); ok {
			spec.Name = name
		}
		for k, val := range entry {
			if k == "name" || k == "component" {
				continue
			}
			if spec.Options == nil {
				spec.Options = make(Options)
			}
			spec.Options[k] = val
		}
		return spec
	default:
		return WidgetSpec{}
	}
}

func (s WidgetSpec) encode() any {
	if len(s.Options) == 0 {
		return s.Name
	}
	obj := make(map[string]any, len(s.Options)+1)
	for k, v := range s.Options {
		obj[k] = v
	}
	obj["name"] = s.Name
	return obj
}

// Options is a widget's raw option bag. Accessors coerce through cast and
// fall back to the supplied default when a key is missing or cannot be
// converted.
type Options map[string]any

func (o Options) value(key string) (any, bool) {
	v, ok := o[key]
	return v, ok && v != nil
}

// Bool returns a boolean option. "true", "1" and 1 are accepted.
func (o Options) Bool(key string, def bool) bool {
	v, ok := o.value(key)
	if !ok {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

// Int returns an integer option. JSON numbers, TOML integers, floats
// (truncated) and numeric strings are accepted.
func (o Options) Int(key string, def int) int {
	v, ok := o.value(key)
	if !ok {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return n
}

// String returns a string option
func (o Options) String(key, def string) string {
	v, ok := o.value(key)
	if !ok {
		return def
	}
	str, err := cast.ToStringE(v)
	if err != nil {
		return def
	}
	return str
}

// Seconds returns an integer option interpreted as seconds. Non-positive
// values fall back to def.
func (o Options) Seconds(key string, def time.Duration) time.Duration {
	n := o.Int(key, -1)
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
