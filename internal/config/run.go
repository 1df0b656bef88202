package config

// RunConfig configures the chomp engine.
type RunConfig struct {
	// Strategies run in this order every round.
	Strategies []string `yaml:"strategies"`

	// Attempts is the per-round candidate budget of the random strategies.
	Attempts int `yaml:"attempts"`

	// WindowSize is w for sliding-window; MaxWindow is N for up-to-n.
	WindowSize int `yaml:"window_size"`
	MaxWindow  int `yaml:"max_window"`

	// Seed for the random strategies; 0 seeds from the clock.
	Seed int64 `yaml:"seed"`

	Memoize   bool `yaml:"memoize"`    // skip states already verified as failing
	MaxRounds int  `yaml:"max_rounds"` // 0 = until fixpoint
	Watch     bool `yaml:"watch"`      // stop when tracked files change underneath
}

// DefaultRunConfig returns the default engine settings.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Strategies: []string{"bisection", "random-lines", "random-ranges", "sliding-window"},
		Attempts:   100,
		WindowSize: 1,
		MaxWindow:  3,
		Seed:       12345,
		Memoize:    true,
		Watch:      true,
	}
}

// ScanConfig configures file discovery.
type ScanConfig struct {
	Extensions     []string `yaml:"extensions"`
	IgnorePatterns []string `yaml:"ignore_patterns"`
	IncludeHidden  bool     `yaml:"include_hidden"`
	MaxFileBytes   int64    `yaml:"max_file_bytes"`
	MaxConcurrency int      `yaml:"max_concurrency"`
}

// DefaultScanConfig returns the default discovery settings.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		Extensions: []string{
			"rs", "py", "js", "ts", "java", "c", "cpp", "h", "rb", "go",
			"jsx", "tsx", "hpp", "cc", "cs", "kt", "sh",
		},
		IgnorePatterns: []string{
			".git", "target", "node_modules", "vendor", "dist", "build",
			"__pycache__", ".venv", "venv", ".idea", ".vscode",
		},
		MaxFileBytes:   8 << 20,
		MaxConcurrency: 8,
	}
}
