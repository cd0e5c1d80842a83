package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/core"
)

func newReloadCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Ask the running bar to reload its layout and plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.LoadSettings(v)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
			defer cancel()

			reply, err := core.SendCommand(ctx, s.SocketPath, core.CommandReload)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}
}
