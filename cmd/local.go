package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mousemacros/internal/input"
	"mousemacros/internal/keys"
	"mousemacros/internal/macro"
)

var errRunFailed = errors.New("mouse injection failed")

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List bindable key and mouse button names",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range keys.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

// localSimulator builds a simulator on the platform injector.
func (a *app) localSimulator() (*macro.Simulator, func() error, error) {
	cfgMgr, log, err := a.setup()
	if err != nil {
		return nil, nil, err
	}
	cfg := cfgMgr.Get()

	backend, err := input.NewBackend(input.Options{
		DeviceGlob: cfg.Input.DeviceGlob,
		UinputPath: cfg.Input.UinputPath,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	sim := macro.NewSimulator(backend, log,
		macro.WithPressDuration(time.Duration(cfg.Input.ClickPressMs)*time.Millisecond))
	return sim, backend.Close, nil
}

func newMoveCmd(a *app) *cobra.Command {
	var sensitivity int
	var times, rate uint
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move the pointer vertically in steps (local, no service needed)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sim, closeFn, err := a.localSimulator()
			if err != nil {
				return err
			}
			defer closeFn()

			if !sim.Move(sensitivity, times, rate) {
				return errRunFailed
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&sensitivity, "sensitivity", "s", 1, "Pixels per step, negative moves up")
	cmd.Flags().UintVarP(&times, "times", "t", 10, "Number of steps")
	cmd.Flags().UintVarP(&rate, "rate", "r", 10, "Milliseconds between steps")
	return cmd
}

func newClickCmd(a *app) *cobra.Command {
	var times, rate uint
	cmd := &cobra.Command{
		Use:   "click",
		Short: "Left-click repeatedly (local, no service needed)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sim, closeFn, err := a.localSimulator()
			if err != nil {
				return err
			}
			defer closeFn()

			if !sim.Click(times, rate) {
				return errRunFailed
			}
			return nil
		},
	}
	cmd.Flags().UintVarP(&times, "times", "t", 5, "Number of clicks")
	cmd.Flags().UintVarP(&rate, "rate", "r", 15, "Milliseconds after each click")
	return cmd
}
