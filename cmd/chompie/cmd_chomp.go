package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"chompie/internal/chomp"
	"chompie/internal/logging"
	"chompie/internal/ux"
	"chompie/internal/world"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runChomp reduces the tree under --dir against the command in args.
func runChomp(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	line := joinArgs(args)
	out := cmd.OutOrStdout()
	logger.Info("chomp starting", zap.String("command", line), zap.String("dir", rootDir), zap.String("run_id", runID))

	scan, err := scanTree(ctx, cfg, rootDir)
	if err != nil {
		return err
	}
	if len(scan.Files) == 0 {
		return fmt.Errorf("no files to chomp under %s", rootDir)
	}
	set := scan.Set()

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		ok, err := confirm(cmd.InOrStdin(), out, rootDir, set)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "aborted, nothing was modified")
			return nil
		}
	}

	seed := resolveSeed(cfg.Run.Seed)
	strategies, err := newStrategies(cfg, seed)
	if err != nil {
		return err
	}
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name()
	}
	logger.Info("strategies", zap.Strings("order", names), zap.Int64("seed", seed))

	executor, metrics := newExecutor(cfg)
	runner := newRunner(cfg, executor, line)

	var guard chomp.Guard
	if cfg.Run.Watch {
		watcher, err := world.NewWatcher(set)
		if err != nil {
			logger.Warn("tree watcher unavailable, continuing without it", zap.Error(err))
		} else {
			defer watcher.Close()
			guard = watcher
		}
	}

	styles := ux.DefaultStyles(cfg.UI.Color && ux.IsTerminal(out))
	reporter := ux.NewReporter(out, ux.ParseMode(cfg.UI.Progress, out), styles)

	engine := chomp.NewEngine(set, runner, chomp.Options{
		Strategies: strategies,
		Memoize:    cfg.Run.Memoize,
		MaxRounds:  cfg.Run.MaxRounds,
		Progress:   reporter,
		Guard:      guard,
	})
	stats, runErr := engine.Run(ctx)

	snap := metrics.Snapshot()
	logger.Info("command executions",
		zap.Int64("total", snap.TotalExecutions),
		zap.Int64("killed", snap.KilledExecutions),
		zap.Int64("failed", snap.FailedExecutions),
		zap.Duration("avg_duration", snap.AvgDuration),
		zap.Int64("peak_rss_bytes", snap.PeakMemoryBytes))

	if errors.Is(runErr, chomp.ErrBaseline) {
		return fmt.Errorf("%w\nnothing was modified; check that the command runs from %s", runErr, rootDir)
	}

	ux.WriteSummary(out, stats, styles)
	if cfg.UI.Report != "" {
		if err := writeReport(out, cfg.UI.Report, line, names, seed, stats, runErr); err != nil {
			logger.Warn("report not written", zap.Error(err))
		}
	}

	switch {
	case errors.Is(runErr, context.Canceled):
		logging.EngineWarn("run interrupted after %d attempts", stats.Attempts)
		return errors.New("interrupted; reductions committed so far are on disk")
	case errors.Is(runErr, world.ErrTreeModified):
		return fmt.Errorf("%w; is the command rewriting its own sources?", runErr)
	}
	return runErr
}

func writeReport(out io.Writer, path, line string, names []string, seed int64, stats *chomp.Stats, runErr error) error {
	md := ux.BuildReport(ux.ReportInfo{
		RunID:      runID,
		Command:    line,
		Root:       rootDir,
		Seed:       seed,
		Strategies: names,
		Err:        runErr,
	}, stats)
	if err := ux.WriteReport(path, md); err != nil {
		return err
	}
	logger.Info("report written", zap.String("path", path))

	if !ux.IsTerminal(out) {
		return nil
	}
	rendered, err := ux.RenderMarkdown(md, 100, cfg.UI.Color)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}
