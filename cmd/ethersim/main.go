// SPDX-License-Identifier: GPL-3.0-or-later

// Command ethersim runs scenario files against the simulated ether.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/rbmk-project/ethersim/scenario"
	"github.com/spf13/cobra"
)

// version is overridden at link time.
var version = "dev"

func main() {
	os.Exit(run())
}

// run executes the command line and returns the exit code.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cmd := newRootCommand(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// newRootCommand builds the command tree.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "ethersim",
		Short: "Simulate byte-level shared transmission media.",
		Long: "ethersim runs YAML scenarios describing ethers, the devices " +
			"attached to them, and the bytes the devices send.",
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(newRunCommand(stdout, stderr))
	root.AddCommand(newVersionCommand(stdout))
	return root
}

// runOptions contains the flags of the run command.
type runOptions struct {
	realtime bool
	ticks    int
	verbose  bool
}

// newRunCommand builds the run command.
func newRunCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run SCENARIO",
		Short: "Run a scenario and print what every device received.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, args[0], opts, stdout, stderr)
		},
	}
	cmd.Flags().BoolVar(&opts.realtime, "realtime", false, "tick on the wall clock instead of stepping")
	cmd.Flags().IntVar(&opts.ticks, "ticks", 0, "override the number of ticks")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "emit structured logs on stderr")
	return cmd
}

// runScenario implements the run command.
func runScenario(cmd *cobra.Command, path string, opts *runOptions, stdout, stderr io.Writer) error {
	cfg, err := scenario.Load(path)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("realtime") {
		cfg.Realtime = opts.realtime
	}
	if opts.ticks > 0 {
		cfg.Ticks = opts.ticks
	}

	var logger *slog.Logger
	if opts.verbose {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	s, err := scenario.New(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Run(cmd.Context()); err != nil {
		return err
	}
	for _, rx := range s.Received() {
		fmt.Fprintf(stdout, "%s: %q\n", rx.Device, rx.Data)
	}
	return nil
}

// newVersionCommand builds the version command.
func newVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "ethersim %s\n", version)
		},
	}
}
