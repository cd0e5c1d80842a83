package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Settings holds process-level options. Values come from CATBAR_* environment
// variables and CLI flags bound to the same viper instance.
type Settings struct {
	ConfigPath    string        `mapstructure:"config_path"`
	ComponentsDir string        `mapstructure:"components_dir"`
	TickInterval  time.Duration `mapstructure:"tick_interval"`
	Debounce      time.Duration `mapstructure:"debounce"`
	PluginTimeout time.Duration `mapstructure:"plugin_timeout"`
	LogFile       string        `mapstructure:"log_file"`
	Verbose       bool          `mapstructure:"verbose"`
	StrictInit    bool          `mapstructure:"strict_init"`
	SocketPath    string        `mapstructure:"socket_path"`
	PIDFile       string        `mapstructure:"pid_file"`
	MetricsAddr   string        `mapstructure:"metrics_addr"`
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("config_path", "~/.config/catfood/bar.json")
	v.SetDefault("components_dir", "~/.config/catfood/components")
	v.SetDefault("tick_interval", 333*time.Millisecond)
	v.SetDefault("debounce", 250*time.Millisecond)
	v.SetDefault("plugin_timeout", 250*time.Millisecond)
	v.SetDefault("log_file", defaultLogFile())
	v.SetDefault("verbose", false)
	v.SetDefault("strict_init", false)
	v.SetDefault("socket_path", defaultSocketPath())
	v.SetDefault("pid_file", filepath.Join(dataDir(), "catfood", "bar.pid"))
	v.SetDefault("metrics_addr", "")
}

// LoadSettings reads settings from v, applying defaults for anything unset.
func LoadSettings(v *viper.Viper) (Settings, error) {
	SetDefaults(v)
	v.SetEnvPrefix("CATBAR")
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, err
	}
	s.ConfigPath = ExpandPath(s.ConfigPath)
	s.ComponentsDir = ExpandPath(s.ComponentsDir)
	s.LogFile = ExpandPath(s.LogFile)
	s.SocketPath = ExpandPath(s.SocketPath)
	s.PIDFile = ExpandPath(s.PIDFile)
	if s.TickInterval <= 0 {
		s.TickInterval = 333 * time.Millisecond
	}
	return s, nil
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	return "~/.local/share"
}

func defaultLogFile() string {
	return filepath.Join(dataDir(), "catfoodBar", "logs", "catfoodBar.log")
}

func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "catbar.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("catbar-%d.sock", os.Getuid()))
}
