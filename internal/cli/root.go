// Package cli defines Cobra command definitions for the mesa CLI.
// This file contains the root command, version flag, and help output.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/berth-dev/mesa/internal/config"
	"github.com/berth-dev/mesa/internal/control"
	"github.com/berth-dev/mesa/internal/log"
	"github.com/berth-dev/mesa/internal/observe"
	"github.com/berth-dev/mesa/internal/tui"
	"github.com/berth-dev/mesa/internal/tui/app"
)

var (
	verbose   bool
	configDir string
	version   = "dev" // set via ldflags at build time
)

// tuiBacklog is how many event lines the dashboard may fall behind by
// before lines are skipped.
const tuiBacklog = 1024

var rootCmd = &cobra.Command{
	Use:   "mesa",
	Short: "Dining philosophers and bounded buffer simulations",
	Long: `Mesa runs two classic contention scenarios as live simulations:
philosophers sharing forks around a table, and producers and consumers
handing values through a bounded ring buffer.

Run without arguments for the interactive dashboard.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// When no subcommand is provided, launch TUI if TTY, show help otherwise
		if !tui.IsTTY() {
			return cmd.Help()
		}

		projectRoot, err := projectRoot()
		if err != nil {
			return err
		}
		cfg, err := config.Load(projectRoot)
		if err != nil {
			return err
		}

		bridge := tui.NewBridge(cfg.Table.Seats, tuiBacklog)
		var obs observe.Observer = bridge
		if cfg.Log.Enabled {
			logger, logErr := log.NewRun(projectRoot)
			if logErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: event log disabled: %v\n", logErr)
			} else {
				defer logger.Close()
				flushCtx, stopFlush := context.WithCancel(cmd.Context())
				defer stopFlush()
				go logger.FlushEvery(flushCtx, logFlushInterval)
				obs = observe.NewMulti(bridge, log.NewObserver(logger))
				appendEvent(logger, log.LogEvent{Event: log.EventRunStarted, Mode: "interactive"})
				defer appendEvent(logger, log.LogEvent{Event: log.EventRunComplete, Mode: "interactive"})
			}
		}

		ctrl, err := control.New(*cfg, obs)
		if err != nil {
			return err
		}
		defer ctrl.Shutdown()

		return tui.Run(app.New(cfg, projectRoot, ctrl, bridge))
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Verbose returns true if --verbose flag is set.
func Verbose() bool {
	return verbose
}

// projectRoot returns the --config directory, or the working directory.
func projectRoot() (string, error) {
	if configDir != "" {
		return filepath.Abs(configDir)
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return dir, nil
}

// appendEvent writes a run-level event, warning instead of failing.
func appendEvent(logger *log.Logger, event log.LogEvent) {
	if err := logger.Append(event); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to log %s: %v\n", event.Event, err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Print every transition instead of the live panel")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Project directory holding .mesa/ (default: current directory)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(dineCmd)
	rootCmd.AddCommand(bufferCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(cleanCmd)
}
