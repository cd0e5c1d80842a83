package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/chess10kp/catbar/internal/compositor"
	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/core"
	"github.com/chess10kp/catbar/internal/metrics"
	"github.com/chess10kp/catbar/internal/plugin"
	"github.com/chess10kp/catbar/internal/statusbar"
	"github.com/chess10kp/catbar/internal/statusbar/modules"
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "catbar",
		Short:         "Terminal status bar with Lua widgets",
		Long:          "catbar samples system and compositor state and draws it as one line of styled text, reloading its layout and plugins when the layout file changes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBar(cmd, v)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "bar layout file (default ~/.config/catfood/bar.json)")
	flags.String("components-dir", "", "directory of Lua widget scripts")
	flags.Duration("tick", 0, "update and draw interval")
	flags.String("log-file", "", "log file path")
	flags.Bool("strict", false, "abort when a widget fails to initialize")
	flags.BoolP("verbose", "v", false, "debug logging")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")

	_ = v.BindPFlag("config_path", flags.Lookup("config"))
	_ = v.BindPFlag("components_dir", flags.Lookup("components-dir"))
	_ = v.BindPFlag("tick_interval", flags.Lookup("tick"))
	_ = v.BindPFlag("log_file", flags.Lookup("log-file"))
	_ = v.BindPFlag("strict_init", flags.Lookup("strict"))
	_ = v.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = v.BindPFlag("metrics_addr", flags.Lookup("metrics-addr"))

	root.AddCommand(newValidateCmd(), newPrintCmd(v), newReloadCmd(v))
	return root
}

// openLog creates the slog logger. The terminal is the display, so logs go
// to the log file; stderr is used only when the file cannot be opened.
func openLog(s config.Settings) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if s.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	if s.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(s.LogFile), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closeFn = func() { f.Close() }
	}
	return slog.New(slog.NewTextHandler(out, opts)), closeFn, nil
}

// newManager wires the registry, plugin host and store into a Manager.
func newManager(s config.Settings, logger *slog.Logger, opts ...statusbar.ManagerOption) (*statusbar.Manager, error) {
	registry := statusbar.NewRegistry(logger.With("component", "registry"))
	deps := modules.Deps{
		Compositor: compositor.Detect(logger),
		Logger:     logger,
	}
	if err := modules.RegisterBuiltins(registry, deps); err != nil {
		return nil, err
	}

	loader := statusbar.DirectoryLoader(s.ComponentsDir,
		plugin.WithLogger(logger.With("component", "plugins")),
		plugin.WithCallTimeout(s.PluginTimeout),
	)
	opts = append([]statusbar.ManagerOption{
		statusbar.WithManagerLogger(logger),
		statusbar.WithStrictInit(s.StrictInit),
	}, opts...)
	return statusbar.NewManager(registry, config.NewStore(s.ConfigPath), loader, opts...), nil
}

func runBar(cmd *cobra.Command, v *viper.Viper) error {
	s, err := config.LoadSettings(v)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	logger, closeLog, err := openLog(s)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("catbar starting", "config", s.ConfigPath, "components", s.ComponentsDir)

	release, err := core.AcquirePIDFile(s.PIDFile)
	if err != nil {
		return err
	}
	defer release()

	var opts []statusbar.ManagerOption
	var m *metrics.Metrics
	if s.MetricsAddr != "" {
		m = metrics.New()
		opts = append(opts, statusbar.WithRecorder(m))
	}

	mgr, err := newManager(s, logger, opts...)
	if err != nil {
		return err
	}
	if err := mgr.Start(); err != nil {
		logger.Error("startup failed", "err", err)
		return err
	}
	defer mgr.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// File changes and control-socket requests share one pending slot.
	reloads := make(chan struct{}, 1)

	watcher, err := config.NewWatcher(s.ConfigPath, s.Debounce, logger, config.WithReloadChannel(reloads))
	if err != nil {
		logger.Warn("config watching disabled", "err", err)
	} else {
		g.Go(func() error { return watcher.Run(ctx) })
	}

	control, err := core.NewControlServer(s.SocketPath, reloads, logger)
	if err != nil {
		logger.Warn("control socket disabled", "err", err)
	} else {
		g.Go(func() error { return control.Run(ctx) })
	}

	if m != nil {
		g.Go(func() error {
			if err := m.Serve(ctx, s.MetricsAddr, logger); err != nil {
				logger.Warn("metrics disabled", "err", err)
			}
			return nil
		})
	}

	app := core.NewApp(mgr, core.NewRenderer(cmd.OutOrStdout()),
		core.WithReloads(reloads),
		core.WithTickInterval(s.TickInterval),
		core.WithLogger(logger),
	)
	g.Go(func() error { return app.Run(ctx) })

	err = g.Wait()
	fmt.Fprintln(cmd.OutOrStdout())
	logger.Info("catbar stopped")
	return err
}
