package config

// ExecutionConfig configures how the verification command runs.
type ExecutionConfig struct {
	// Shell used as `<shell> -c COMMAND` (ignored on Windows, which uses cmd /C)
	Shell string `yaml:"shell"`

	// Per-run timeout (Go duration)
	Timeout string `yaml:"timeout"`

	// Pass the full parent environment; when false only AllowedEnvVars are passed
	InheritEnv     bool     `yaml:"inherit_env"`
	AllowedEnvVars []string `yaml:"allowed_env_vars"`

	// Output beyond this many bytes per stream makes the run undetermined
	MaxOutputBytes int64 `yaml:"max_output_bytes"`

	// Working directory; empty means the current directory
	WorkingDirectory string `yaml:"working_directory"`
}

// DefaultExecutionConfig returns the default execution settings.
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		Shell:          "sh",
		Timeout:        "5m",
		InheritEnv:     true,
		AllowedEnvVars: []string{"PATH", "HOME", "USER", "LANG", "TMPDIR", "GOPATH", "GOCACHE"},
		MaxOutputBytes: 64 << 20,
	}
}
