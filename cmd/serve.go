package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mousemacros/internal/api"
	"mousemacros/internal/config"
	"mousemacros/internal/hotkey"
	"mousemacros/internal/input"
	"mousemacros/internal/macro"
	"mousemacros/internal/osutils"
	"mousemacros/internal/tray"
)

type serveOptions struct {
	tray     bool
	activate bool
	binds    []string
	holds    []string
}

func newServeCmd(a *app) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the service (input hook, bridge, tray)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.tray, "tray", false, "Show the system tray menu (default from config)")
	cmd.Flags().BoolVar(&opts.activate, "activate", false, "Install bindings immediately")
	cmd.Flags().StringArrayVar(&opts.binds, "bind", nil, "Bind a key before starting, can be repeated")
	cmd.Flags().StringArrayVar(&opts.holds, "hold", nil, "Bind a hold key before starting, can be repeated")
	return cmd
}

func runServe(parent context.Context, a *app, opts *serveOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	cfgMgr, log, err := a.setup()
	if err != nil {
		return err
	}
	cfg := cfgMgr.Get()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Debug().Bool("admin", osutils.IsAdmin()).Msg("checking input access")
	for _, w := range osutils.CheckInputAccess(cfg.Input.DeviceGlob, cfg.Input.UinputPath) {
		log.Warn().Str("check", w.String()).Msg("input access")
	}

	backend, err := input.NewBackend(input.Options{
		DeviceGlob: cfg.Input.DeviceGlob,
		UinputPath: cfg.Input.UinputPath,
		Grab:       cfg.Input.GrabDevices,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create input backend: %w", err)
	}
	defer backend.Close()

	hub := api.NewHub(log)
	hotkeys := hotkey.NewManager(hotkey.NewRegistry(), backend, hub, log, hotkey.Options{
		HoldInterval: time.Duration(cfg.Input.HoldIntervalMs) * time.Millisecond,
	})
	sim := macro.NewSimulator(backend, log,
		macro.WithPressDuration(time.Duration(cfg.Input.ClickPressMs)*time.Millisecond))
	gate := macro.NewGate(sim)
	gate.SetScriptActive(cfg.General.ScriptActive)
	gate.SetClickActive(cfg.General.ClickActive)

	for _, name := range opts.binds {
		if err := hotkeys.BindKey(name); err != nil {
			return err
		}
	}
	for _, name := range opts.holds {
		if err := hotkeys.BindHoldKey(name); err != nil {
			return err
		}
	}

	var menu *serviceTray
	if opts.tray || cfg.General.ShowTray {
		menu = newServiceTray(cfgMgr, hotkeys, stop, log)
	}

	cfgMgr.RegisterChangeCallback(func(c *config.Config) {
		gate.SetScriptActive(c.General.ScriptActive)
		gate.SetClickActive(c.General.ClickActive)
		if menu != nil {
			menu.sync(c)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return cfgMgr.Watch(gctx)
	})
	if cfg.General.APIEnabled {
		srv := api.NewServer(cfgMgr, hotkeys, gate, hub, log)
		g.Go(func() error {
			return srv.Start(gctx, cfg.General.APIPort)
		})
	}
	if opts.activate {
		g.Go(func() error {
			return hotkeys.Activate(gctx)
		})
	}

	log.Info().Str("version", version).Bool("api", cfg.General.APIEnabled).Int("port", cfg.General.APIPort).Msg("service running, press Ctrl+C to stop")

	if menu != nil {
		go menu.refresh(gctx)
		go func() {
			<-gctx.Done()
			menu.tray.Stop()
		}()
		// systray wants the main goroutine
		menu.tray.Run()
		stop()
	}

	err = g.Wait()
	log.Info().Msg("shutting down")
	return err
}

// serviceTray wires the tray menu to the configuration toggles.
type serviceTray struct {
	tray    *tray.Tray
	cfgMgr  *config.Manager
	hotkeys *hotkey.Manager
	log     zerolog.Logger

	status int
	script int
	click  int
}

func newServiceTray(cfgMgr *config.Manager, hotkeys *hotkey.Manager, quit func(), log zerolog.Logger) *serviceTray {
	st := &serviceTray{
		tray:    tray.New("Macros", "mousemacros"),
		cfgMgr:  cfgMgr,
		hotkeys: hotkeys,
		log:     log,
	}

	st.status = st.tray.AddLabel("Hook: inactive")
	st.tray.AddSeparator()
	st.script = st.tray.AddMenuItem("Script active", func() {
		st.toggle(func(c *config.Config) { c.General.ScriptActive = !c.General.ScriptActive })
	})
	st.click = st.tray.AddMenuItem("Mouse click active", func() {
		st.toggle(func(c *config.Config) { c.General.ClickActive = !c.General.ClickActive })
	})
	st.tray.AddSeparator()
	st.tray.AddMenuItem("Quit", quit)

	st.sync(cfgMgr.Get())
	return st
}

func (st *serviceTray) toggle(fn func(*config.Config)) {
	st.cfgMgr.Update(fn)
	if err := st.cfgMgr.Save(); err != nil {
		st.log.Error().Err(err).Msg("failed to save config")
	}
}

func (st *serviceTray) sync(c *config.Config) {
	st.tray.SetItemChecked(st.script, c.General.ScriptActive)
	st.tray.SetItemChecked(st.click, c.General.ClickActive)
}

// refresh keeps the hook status label current.
func (st *serviceTray) refresh(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := st.hotkeys.Status()
			label := "Hook: inactive"
			if s.Active {
				label = fmt.Sprintf("Hook: active (%d keys, %d buttons)", s.KeyboardBindings, s.MouseBindings)
			}
			st.tray.SetItemTitle(st.status, label)
		}
	}
}
