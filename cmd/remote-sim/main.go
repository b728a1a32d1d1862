//go:build !rp2040

// Command remote-sim runs the remote's command console against the simulated
// platform.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "remote-sim",
		Short: "Drive the IR remote core on a simulated board",
		Long: `remote-sim wires the carrier timer, indicator and console to a simulated
timer block, interrupt controller and GPIO bank, then reads console commands
from stdin or a script file. Component events are logged to stderr.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			in := cmd.InOrStdin()
			if o.Script != "" {
				f, err := os.Open(o.Script)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return run(ctx, o, in, cmd.OutOrStdout(), newLogger(cmd.ErrOrStderr(), o.LogLevel))
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.Board, "board", "b", "pico_remote", "built-in board name")
	f.StringVar(&o.BoardFile, "board-file", "", "TOML file overriding board fields")
	f.StringVarP(&o.Script, "script", "s", "", "read commands from file instead of stdin")
	f.DurationVar(&o.Tick, "tick", 0, "advance the simulated timer every interval (0 disables)")
	f.IntVar(&o.Cycles, "cycles", 64, "timer input cycles per tick")
	f.BoolVar(&o.Fast, "fast", false, "advance a mock clock instead of sleeping")
	f.StringVar(&o.LogLevel, "log-level", "info", "debug, info, warn or error")
	cmd.SetContext(context.Background())
	return cmd
}
