package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"chompie/internal/strategy"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the current directory when no --config is given.
const DefaultFileName = "chompie.yaml"

// Config holds all chompie configuration.
type Config struct {
	Run       RunConfig       `yaml:"run"`
	Scan      ScanConfig      `yaml:"scan"`
	Execution ExecutionConfig `yaml:"execution"`
	Logging   LoggingConfig   `yaml:"logging"`
	UI        UIConfig        `yaml:"ui"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Run:       DefaultRunConfig(),
		Scan:      DefaultScanConfig(),
		Execution: DefaultExecutionConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		UI: UIConfig{
			Progress: ProgressAuto,
			Color:    true,
		},
	}
}

// ResolvePath picks the config file to load: the explicit path if given,
// otherwise DefaultFileName when it exists, otherwise "" (defaults only).
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName
	}
	return ""
}

// Load reads configuration from path, layered over the defaults, then applies
// environment overrides. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// defaults
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// applyEnvOverrides applies CHOMPIE_* environment variables.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("CHOMPIE_STRATEGIES"); v != "" {
		c.Run.Strategies = splitList(v)
	}
	if v := os.Getenv("CHOMPIE_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHOMPIE_ATTEMPTS: %w", err)
		}
		c.Run.Attempts = n
	}
	if v := os.Getenv("CHOMPIE_WINDOW"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHOMPIE_WINDOW: %w", err)
		}
		c.Run.WindowSize = n
	}
	if v := os.Getenv("CHOMPIE_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("CHOMPIE_SEED: %w", err)
		}
		c.Run.Seed = n
	}
	if v := os.Getenv("CHOMPIE_TIMEOUT"); v != "" {
		c.Execution.Timeout = v
	}
	if v := os.Getenv("CHOMPIE_SHELL"); v != "" {
		c.Execution.Shell = v
	}
	if v := os.Getenv("CHOMPIE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CHOMPIE_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CHOMPIE_DEBUG: %w", err)
		}
		c.Logging.DebugMode = b
	}
	if v := os.Getenv("CHOMPIE_LOG_DIR"); v != "" {
		c.Logging.Dir = v
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetExecutionTimeout returns the per-run command timeout.
func (c *Config) GetExecutionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if len(c.Run.Strategies) == 0 {
		return fmt.Errorf("run.strategies: at least one strategy required (known: %s)", strings.Join(strategy.Names(), ", "))
	}
	for _, name := range c.Run.Strategies {
		if !strategy.IsKnown(name) {
			return fmt.Errorf("run.strategies: unknown strategy %q (known: %s)", name, strings.Join(strategy.Names(), ", "))
		}
	}
	if c.Run.Attempts < 1 {
		return fmt.Errorf("run.attempts must be >= 1, got %d", c.Run.Attempts)
	}
	if c.Run.WindowSize < 1 {
		return fmt.Errorf("run.window_size must be >= 1, got %d", c.Run.WindowSize)
	}
	if c.Run.MaxWindow < 1 {
		return fmt.Errorf("run.max_window must be >= 1, got %d", c.Run.MaxWindow)
	}
	if c.Run.MaxRounds < 0 {
		return fmt.Errorf("run.max_rounds must be >= 0, got %d", c.Run.MaxRounds)
	}
	if c.Scan.MaxConcurrency < 1 {
		return fmt.Errorf("scan.max_concurrency must be >= 1, got %d", c.Scan.MaxConcurrency)
	}
	if c.Execution.Timeout != "" {
		d, err := time.ParseDuration(c.Execution.Timeout)
		if err != nil {
			return fmt.Errorf("execution.timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("execution.timeout must be positive, got %s", c.Execution.Timeout)
		}
	}
	if c.Execution.MaxOutputBytes < 0 {
		return fmt.Errorf("execution.max_output_bytes must be >= 0, got %d", c.Execution.MaxOutputBytes)
	}
	if err := c.Logging.validate(); err != nil {
		return err
	}
	return c.UI.validate()
}
