package main

import (
	"fmt"
	"time"

	"chompie/internal/config"

	"github.com/spf13/cobra"
)

// Flag values win over the config file and the environment, but only when set.

func addExecutionFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("timeout", "", "Per-run command timeout, e.g. 30s (execution.timeout)")
	flags.String("shell", "", "Shell that runs COMMAND as <shell> -c COMMAND (execution.shell)")
	flags.String("workdir", "", "Working directory for COMMAND (execution.working_directory)")
}

func addRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSlice("strategies", nil, "Strategies to run each round, in order (run.strategies)")
	flags.Int("attempts", 0, "Candidates per round for the random strategies (run.attempts)")
	flags.Int("window", 0, "Window size for sliding-window (run.window_size)")
	flags.Int("max-window", 0, "Largest window for up-to-n (run.max_window)")
	flags.Int64("seed", 0, "Random seed; 0 seeds from the clock (run.seed)")
	flags.Int("max-rounds", 0, "Stop after this many rounds; 0 runs to fixpoint (run.max_rounds)")
	flags.Bool("no-memo", false, "Re-run candidates that recreate a known failing state")
	flags.Bool("no-watch", false, "Do not watch tracked files for outside changes")
	flags.String("report", "", "Write a markdown report to this path (ui.report)")
	flags.String("progress", "", "Progress display: auto, live, plain, off (ui.progress)")
	flags.Bool("no-color", false, "Disable colored output")
	flags.BoolP("yes", "y", false, "Do not ask for confirmation before modifying files")
}

// applyFlags copies explicitly set flags into cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("debug") {
		cfg.Logging.DebugMode, _ = flags.GetBool("debug")
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	if changed("timeout") {
		v, _ := flags.GetString("timeout")
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid --timeout %q: %w", v, err)
		}
		cfg.Execution.Timeout = v
	}
	if changed("shell") {
		cfg.Execution.Shell, _ = flags.GetString("shell")
	}
	if changed("workdir") {
		cfg.Execution.WorkingDirectory, _ = flags.GetString("workdir")
	}

	if changed("strategies") {
		cfg.Run.Strategies, _ = flags.GetStringSlice("strategies")
	}
	if changed("attempts") {
		cfg.Run.Attempts, _ = flags.GetInt("attempts")
	}
	if changed("window") {
		cfg.Run.WindowSize, _ = flags.GetInt("window")
	}
	if changed("max-window") {
		cfg.Run.MaxWindow, _ = flags.GetInt("max-window")
	}
	if changed("seed") {
		cfg.Run.Seed, _ = flags.GetInt64("seed")
	}
	if changed("max-rounds") {
		cfg.Run.MaxRounds, _ = flags.GetInt("max-rounds")
	}
	if changed("no-memo") {
		noMemo, _ := flags.GetBool("no-memo")
		cfg.Run.Memoize = !noMemo
	}
	if changed("no-watch") {
		noWatch, _ := flags.GetBool("no-watch")
		cfg.Run.Watch = !noWatch
	}
	if changed("report") {
		cfg.UI.Report, _ = flags.GetString("report")
	}
	if changed("progress") {
		cfg.UI.Progress, _ = flags.GetString("progress")
	}
	if changed("no-color") {
		noColor, _ := flags.GetBool("no-color")
		cfg.UI.Color = !noColor
	}
	return nil
}
