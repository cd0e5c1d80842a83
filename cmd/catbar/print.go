package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/core"
)

func newPrintCmd(v *viper.Viper) *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print a single frame and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.LoadSettings(v)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}
			logger, closeLog, err := openLog(s)
			if err != nil {
				return err
			}
			defer closeLog()

			mgr, err := newManager(s, logger)
			if err != nil {
				return err
			}
			if err := mgr.Start(); err != nil {
				return err
			}
			defer mgr.Close()

			if err := mgr.Tick(); err != nil {
				logger.Debug("update pass had failures", "err", err)
			}

			var opts []core.RendererOption
			if width > 0 {
				opts = append(opts, core.WithWidth(width))
			}
			return core.NewRenderer(cmd.OutOrStdout(), opts...).Print(mgr)
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "line width (default: terminal width)")
	return cmd
}
