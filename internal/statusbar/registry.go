package statusbar

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/sahilm/fuzzy"

	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/plugin"
)

// Factory builds one built-in widget kind.
type Factory interface {
	Name() string
	Create(opts config.Options) (Widget, error)
}

// InitError is returned by a factory whose widget cannot start, for example a
// battery widget on a machine without a battery. It is the only error that
// Registry.Create passes to its caller.
type InitError struct {
	Widget string
	Err    error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialize %s: %v", e.Widget, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// PluginSource resolves plugin names to compiled scripts.
type PluginSource interface {
	Component(name string) (*plugin.Definition, bool)
	Names() []string
}

// Registry maps widget names to built-in factories and falls back to plugins.
type Registry struct {
	factories map[string]Factory
	logger    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger.With("component", "registry"),
	}
}

// Register adds a built-in factory.
func (r *Registry) Register(f Factory) error {
	name := f.Name()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("widget '%s' already registered", name)
	}
	r.factories[name] = f
	return nil
}

// Names returns the built-in widget names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds the widget for spec. Built-in names win over plugins of the
// same name; anything else becomes an ErrorWidget. The only error returned is
// an *InitError from a built-in factory.
func (r *Registry) Create(spec config.WidgetSpec, plugins PluginSource) (Widget, error) {
	if f, ok := r.factories[spec.Name]; ok {
		w, err := safeCreate(f, spec.Options)
		if err == nil {
			return w, nil
		}
		var initErr *InitError
		if errors.As(err, &initErr) {
			return nil, err
		}
		r.logger.Warn("widget failed to build", "name", spec.Name, "err", err)
		return NewErrorWidget(spec.Name), nil
	}

	if plugins != nil {
		if def, ok := plugins.Component(spec.Name); ok {
			return NewPluginWidget(def), nil
		}
	}

	if suggestions := r.Suggest(spec.Name, plugins); len(suggestions) > 0 {
		r.logger.Warn("unknown widget", "name", spec.Name, "did_you_mean", suggestions)
	} else {
		r.logger.Warn("unknown widget", "name", spec.Name)
	}
	return NewErrorWidget(spec.Name), nil
}

func safeCreate(f Factory, opts config.Options) (w Widget, err error) {
	defer func() {
		if r := recover(); r != nil {
			w, err = nil, fmt.Errorf("panic in create: %v", r)
		}
	}()
	return f.Create(opts)
}

// Suggest returns up to three known names that fuzzily match name.
func (r *Registry) Suggest(name string, plugins PluginSource) []string {
	if name == "" {
		return nil
	}
	candidates := r.Names()
	if plugins != nil {
		candidates = append(candidates, plugins.Names()...)
	}

	matches := fuzzy.Find(name, candidates)
	var out []string
	for _, m := range matches {
		if len(out) == 3 {
			break
		}
		out = append(out, m.Str)
	}
	return out
}
