package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"chompie/internal/chomp"
	"chompie/internal/config"
	"chompie/internal/filestate"
	"chompie/internal/strategy"
	"chompie/internal/tactile"
	"chompie/internal/world"

	"go.uber.org/zap"
)

// newExecutor builds the command executor from the execution settings and
// attaches a metrics recorder to its audit stream.
func newExecutor(c *config.Config) (tactile.Executor, *tactile.ExecutionMetrics) {
	execConfig := tactile.DefaultExecutorConfig()
	execConfig.DefaultTimeout = c.GetExecutionTimeout()
	if execConfig.DefaultTimeout > execConfig.MaxTimeout {
		execConfig.MaxTimeout = execConfig.DefaultTimeout
	}
	execConfig.DefaultWorkingDir = c.Execution.WorkingDirectory
	execConfig.InheritEnvironment = c.Execution.InheritEnv
	execConfig.AllowedEnvironment = c.Execution.AllowedEnvVars
	if c.Execution.MaxOutputBytes > 0 {
		execConfig.MaxOutputBytes = c.Execution.MaxOutputBytes
	}

	executor := tactile.NewDirectExecutorWithConfig(execConfig)
	metrics := attachMetrics(executor)

	caps := executor.Capabilities()
	logger.Debug("executor ready",
		zap.String("executor", caps.Name),
		zap.String("platform", caps.Platform),
		zap.Bool("process_groups", caps.SupportsProcessGroups),
		zap.Duration("timeout", caps.DefaultTimeout))
	return executor, metrics
}

func attachMetrics(executor tactile.AuditedExecutor) *tactile.ExecutionMetrics {
	metrics := tactile.NewExecutionMetrics()
	executor.SetAuditCallback(metrics.RecordEvent)
	return metrics
}

// newRunner wraps line in the configured shell.
func newRunner(c *config.Config, executor tactile.Executor, line string) *chomp.CommandRunner {
	cmd := tactile.ShellCommand(c.Execution.Shell, line)
	cmd.SessionID = runID
	return chomp.NewCommandRunner(executor, cmd)
}

// resolveSeed returns the configured seed, drawing one from the clock for 0.
func resolveSeed(seed int64) int64 {
	if seed == 0 {
		return time.Now().UnixNano()
	}
	return seed
}

func newStrategies(c *config.Config, seed int64) ([]strategy.Strategy, error) {
	return strategy.Parse(c.Run.Strategies, strategy.Options{
		Attempts:   c.Run.Attempts,
		WindowSize: c.Run.WindowSize,
		MaxWindow:  c.Run.MaxWindow,
		Seed:       uint64(seed),
	})
}

func scannerConfig(c *config.Config) world.ScannerConfig {
	return world.ScannerConfig{
		MaxConcurrency: c.Scan.MaxConcurrency,
		IgnorePatterns: c.Scan.IgnorePatterns,
		Extensions:     c.Scan.Extensions,
		IncludeHidden:  c.Scan.IncludeHidden,
		MaxFileBytes:   c.Scan.MaxFileBytes,
	}
}

func scanTree(ctx context.Context, c *config.Config, root string) (*world.ScanResult, error) {
	result, err := world.NewScanner(scannerConfig(c)).Scan(ctx, root)
	if err != nil {
		return nil, err
	}
	for _, s := range result.Skipped {
		logger.Debug("skipped file", zap.String("path", s.Path), zap.String("reason", string(s.Reason)))
	}
	return result, nil
}

// confirm asks before the tree is modified. Anything but y or yes declines.
func confirm(in io.Reader, out io.Writer, root string, set *filestate.Set) (bool, error) {
	fmt.Fprintf(out, "This will destructively modify %d files under %s (%d non-blank lines).\n",
		set.Len(), root, set.NonBlankCount())
	fmt.Fprint(out, "Make sure they are committed or backed up. Continue? [y/N] ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
