package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mousemacros/internal/client"
	"mousemacros/internal/config"
	"mousemacros/internal/protocol"
)

type remoteOptions struct {
	addr    string
	timeout time.Duration
}

func (o *remoteOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.addr, "addr", "", "Service address (default 127.0.0.1:<api_port>)")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 5*time.Second, "How long to wait for the service")
}

func (o *remoteOptions) client(cfg *config.Config, log zerolog.Logger) *client.Client {
	addr := o.addr
	if addr == "" {
		addr = fmt.Sprintf("127.0.0.1:%d", cfg.General.APIPort)
	}
	c := client.New(addr, cfg.General.APIToken, log)
	c.RetryDelay = 500 * time.Millisecond
	return c
}

// invoke runs one command against a running service and prints the result.
func (a *app) invoke(cmd *cobra.Command, o *remoteOptions, command string, args any) error {
	cfgMgr, log, err := a.setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()

	c := o.client(cfgMgr.Get(), log)
	defer c.Close()
	go c.Run(ctx)

	res, err := c.Invoke(ctx, command, args)
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}

	out, _ := json.Marshal(res)
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	if !res.OK && !res.Skipped {
		return fmt.Errorf("%s failed: %s", command, res.Error)
	}
	return nil
}

func newListenCmd(a *app) *cobra.Command {
	o := &remoteOptions{}
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print notifications emitted by a running service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgMgr, log, err := a.setup()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			c := o.client(cfgMgr.Get(), log)
			c.OnEvent = func(event string, payload json.RawMessage) {
				fmt.Fprintf(out, "%s\t%s\n", event, payload)
			}
			defer c.Close()
			return c.Run(ctx)
		},
	}
	o.register(cmd)
	return cmd
}

func newBindCmd(a *app) *cobra.Command {
	o := &remoteOptions{}
	var hold bool
	cmd := &cobra.Command{
		Use:   "bind <name>",
		Short: "Bind a key on a running service",
		Long: `Bind a key on a running service.

<name> is Key, Mod_Key or Mod1_Mod2_Key for a press binding, or a single key
or mouse button with --hold. Run "mousemacros keys" for the key names.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := protocol.CmdBindKey
			if hold {
				command = protocol.CmdBindHoldKey
			}
			return a.invoke(cmd, o, command, protocol.BindArgs{NameKey: args[0]})
		},
	}
	cmd.Flags().BoolVar(&hold, "hold", false, "Create a hold binding")
	o.register(cmd)
	return cmd
}

func newInvokeCmd(a *app) *cobra.Command {
	o := &remoteOptions{}
	cmd := &cobra.Command{
		Use:   "invoke <command> [json-args]",
		Short: "Send any bridge command to a running service",
		Long: `Send any bridge command to a running service.

Commands: bind_key, bind_hold_key, active_handle, mouse_move, mouse_click.

Examples:
  mousemacros invoke active_handle
  mousemacros invoke mouse_move '{"sensitivity":2,"times":10,"rate":10}'
  mousemacros invoke mouse_click '{"times":5,"rate":15,"gated":true}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw json.RawMessage
			if len(args) == 2 {
				if !json.Valid([]byte(args[1])) {
					return fmt.Errorf("invalid JSON arguments: %s", args[1])
				}
				raw = json.RawMessage(args[1])
			}
			var payload any
			if raw != nil {
				payload = raw
			}
			return a.invoke(cmd, o, args[0], payload)
		},
	}
	o.register(cmd)
	return cmd
}
