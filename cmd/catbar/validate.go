package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/statusbar"
	"github.com/chess10kp/catbar/internal/statusbar/modules"
)

const defaultConfigPath = "~/.config/catfood/bar.json"

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Check a bar layout file",
		Long:  "validate parses a layout file and reports widget names that are neither built in nor a plugin, with suggestions.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			componentsDir, _ := cmd.Flags().GetString("components-dir")
			if componentsDir == "" {
				componentsDir = "~/.config/catfood/components"
			}
			return validate(cmd.OutOrStdout(), path, config.ExpandPath(componentsDir))
		},
	}
}

func validate(out io.Writer, path, componentsDir string) error {
	fmt.Fprintf(out, "Validating config: %s\n", path)

	layout, err := config.ValidateFile(path)
	if err != nil {
		fmt.Fprintf(out, "✗ %v\n", err)
		return err
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := statusbar.NewRegistry(quiet)
	if err := modules.RegisterBuiltins(registry, modules.Deps{Logger: quiet}); err != nil {
		return err
	}
	plugins, err := statusbar.DirectoryLoader(componentsDir)()
	if err != nil {
		return err
	}
	defer func() {
		if c, ok := plugins.(io.Closer); ok {
			c.Close()
		}
	}()

	known := make(map[string]bool)
	for _, name := range registry.Names() {
		known[name] = true
	}
	for _, name := range plugins.Names() {
		known[name] = true
	}

	var unknown int
	for _, name := range layout.Names() {
		if known[name] {
			continue
		}
		unknown++
		if s := registry.Suggest(name, plugins); len(s) > 0 {
			fmt.Fprintf(out, "✗ unknown widget %q (did you mean %v?)\n", name, s)
		} else {
			fmt.Fprintf(out, "✗ unknown widget %q\n", name)
		}
	}
	if unknown > 0 {
		return fmt.Errorf("config validation failed: %d unknown widget(s)", unknown)
	}

	fmt.Fprintf(out, "✓ %d widgets, config is valid\n", len(layout.Names()))
	return nil
}
