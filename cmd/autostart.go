package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mousemacros/internal/autostart"
	"mousemacros/internal/config"
)

func newAutostartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage starting the service on login",
	}

	setBoot := func(on bool) error {
		cfgMgr, _, err := a.setup()
		if err != nil {
			return err
		}
		cfgMgr.Update(func(c *config.Config) { c.General.StartOnBoot = on })
		return cfgMgr.Save()
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "enable",
			Short: "Start the service with the tray on login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := autostart.Enable("serve", "--tray"); err != nil {
					return fmt.Errorf("enable autostart: %w", err)
				}
				return setBoot(true)
			},
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Stop starting the service on login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := autostart.Disable(); err != nil {
					return fmt.Errorf("disable autostart: %w", err)
				}
				return setBoot(false)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether autostart is enabled",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				state := "disabled"
				if autostart.IsEnabled() {
					state = "enabled"
				}
				fmt.Fprintln(cmd.OutOrStdout(), state)
			},
		},
	)
	return cmd
}
