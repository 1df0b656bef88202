package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chompie/internal/chomp"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// baselineCmd shows what the oracle would compare against.
var baselineCmd = &cobra.Command{
	Use:   "baseline COMMAND",
	Short: "Run COMMAND once and print the captured exit code, stdout and stderr",
	Long: `Runs COMMAND exactly as a chomp run would and prints the result that every
candidate would be compared against. Nothing is modified.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBaseline,
}

func init() {
	baselineCmd.Flags().SetInterspersed(false)
}

func runBaseline(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	line := joinArgs(args)
	executor, metrics := newExecutor(cfg)
	runner := newRunner(cfg, executor, line)

	start := time.Now()
	res, err := chomp.CaptureBaseline(ctx, runner)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logger.Debug("baseline captured", zap.Int("exit_code", res.ExitCode), zap.Duration("elapsed", elapsed))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "command:   %s\n", line)
	fmt.Fprintf(out, "exit code: %d\n", res.ExitCode)
	fmt.Fprintf(out, "duration:  %s\n", elapsed.Round(time.Millisecond))
	if snap := metrics.Snapshot(); snap.PeakMemoryBytes > 0 {
		fmt.Fprintf(out, "peak rss:  %d KiB\n", snap.PeakMemoryBytes/1024)
	}
	printStream(out, "stdout", res.Stdout)
	printStream(out, "stderr", res.Stderr)
	return nil
}

func printStream(out io.Writer, name, content string) {
	fmt.Fprintf(out, "--- %s (%d bytes)\n", name, len(content))
	if content == "" {
		return
	}
	fmt.Fprint(out, content)
	if content[len(content)-1] != '\n' {
		fmt.Fprintln(out)
	}
}
