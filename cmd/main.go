// mousemacros - global key bindings and mouse macros
// Binds keys to front-end notifications and synthesizes mouse motion and clicks.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mousemacros/internal/config"
	"mousemacros/internal/logging"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the flags shared by every command.
type app struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "mousemacros",
		Short: "Global key bindings and mouse macros",
		Long: `mousemacros listens to the keyboard and mouse system-wide, turns bound keys
into notifications for a front-end, and synthesizes relative mouse motion and
left clicks on request.

Run without arguments to start the service.

Examples:
  mousemacros                            # Start the service
  mousemacros serve --tray --activate    # Service with tray menu, hook installed
  mousemacros serve --bind Control_A --hold F1 --activate
  mousemacros listen                     # Print notifications from a running service
  mousemacros bind Shift_Numpad1         # Bind a key on a running service
  mousemacros move -s 2 -t 10 -r 15      # Move the pointer down locally`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Configuration file (default: per-user config dir)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (overrides the configuration)")

	serve := newServeCmd(a)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(
		serve,
		newKeysCmd(),
		newMoveCmd(a),
		newClickCmd(a),
		newListenCmd(a),
		newBindCmd(a),
		newInvokeCmd(a),
		newAutostartCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the configuration and builds the root logger.
func (a *app) setup() (*config.Manager, zerolog.Logger, error) {
	boot := logging.New(os.Stderr, a.logLevel)

	var cfgMgr *config.Manager
	if a.configPath != "" {
		cfgMgr = config.NewManagerAt(a.configPath, boot)
	} else {
		m, err := config.NewManager(boot)
		if err != nil {
			return nil, boot, fmt.Errorf("failed to initialize config: %w", err)
		}
		cfgMgr = m
	}
	if err := cfgMgr.Load(); err != nil {
		boot.Warn().Err(err).Msg("failed to load config, using defaults")
	}

	level := a.logLevel
	if level == "" {
		level = cfgMgr.Get().General.LogLevel
	}
	return cfgMgr, logging.New(os.Stderr, level), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mousemacros version %s\n", version)
		},
	}
}
