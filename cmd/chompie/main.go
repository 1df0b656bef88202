package main

import (
	"fmt"
	"os"
	"strings"

	"chompie/internal/config"
	"chompie/internal/logging"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	rootDir    string

	// Loaded in PersistentPreRunE
	logger *zap.Logger
	cfg    *config.Config
	runID  string
)

// rootCmd chomps the tree under --dir against COMMAND.
var rootCmd = &cobra.Command{
	Use:   "chompie [flags] COMMAND",
	Short: "Shrink a source tree while a command's output stays the same",
	Long: `chompie runs COMMAND once to record its exit code, stdout and stderr, then
repeatedly blanks lines in the tracked files, keeping every blanking after
which COMMAND still produces exactly the same result. It stops when a whole
round of strategies removes nothing.

Files are rewritten in place. Commit or back up the tree first.

Examples:
  chompie -d src "go test ./... 2>&1 | grep -c FAIL"
  chompie -y --strategies bisection,sliding-window -- make repro`,
	Args:              cobra.MinimumNArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runChomp,
}

func setup(cmd *cobra.Command, args []string) error {
	zapConfig := zap.NewProductionConfig()
	if verbose {
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	var err error
	logger, err = zapConfig.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err = config.Load(config.ResolvePath(configPath))
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	runID = uuid.NewString()
	if err := logging.Initialize(cfg.Logging.ToLogging(), runID); err != nil {
		return fmt.Errorf("failed to initialize file logging: %w", err)
	}
	logging.Boot("chompie starting: command=%s run_id=%s", cmd.Name(), runID)
	logger.Debug("configuration loaded",
		zap.String("config", config.ResolvePath(configPath)),
		zap.String("run_id", runID),
		zap.Bool("debug_mode", cfg.Logging.DebugMode))
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./"+config.DefaultFileName+" if present)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", ".", "Directory (or single file) to chomp")
	rootCmd.PersistentFlags().Bool("debug", false, "Write categorized debug logs (logging.debug_mode)")
	addExecutionFlags(rootCmd)
	addRunFlags(rootCmd)

	// Everything after the first positional argument belongs to COMMAND.
	rootCmd.Flags().SetInterspersed(false)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	err := rootCmd.Execute()
	logging.CloseAll()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// joinArgs rebuilds the command line from positional arguments.
func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
