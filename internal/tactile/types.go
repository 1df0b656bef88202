// Package tactile is the execution layer that physically runs the
// verification command: process launch, output capture, timeouts and
// process-group cleanup.
//
// Design Principles:
//   - Success=false means the command could not be run at all; a command
//     that ran and exited nonzero is still Success=true.
//   - Output is captured byte-exact and bounded; overflow is reported, not hidden.
//   - Cross-platform: Windows and Unix support
//   - Audit trail: execution events feed ExecutionMetrics and the logs
package tactile

import (
	"strings"
	"time"
)

// Command represents a command to be executed.
type Command struct {
	// Binary is the executable to run (e.g., "sh", "cmd").
	Binary string

	// Arguments are the command-line arguments.
	Arguments []string

	// WorkingDirectory is the directory to execute in.
	// If empty, uses the executor's default working directory.
	WorkingDirectory string

	// Environment variables to set (in KEY=VALUE format).
	// These are appended to the executor's environment.
	Environment []string

	// Stdin provides input to the command's standard input.
	Stdin string

	// Limits specifies resource constraints for execution.
	Limits *ResourceLimits

	// SessionID links this execution to a run (for audit).
	SessionID string

	// RequestID uniquely identifies this execution request.
	RequestID string
}

// CommandString returns the full command as a string (for display/logging).
func (c Command) CommandString() string {
	if len(c.Arguments) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Arguments, " ")
}

// ResourceLimits defines constraints on command execution.
type ResourceLimits struct {
	// TimeoutMs is the maximum execution time in milliseconds.
	// Zero means use the executor's default timeout.
	TimeoutMs int64

	// MaxOutputBytes limits captured bytes per stream.
	// Zero means use the executor's default.
	MaxOutputBytes int64
}

// ExecutionResult is the outcome of one command execution.
type ExecutionResult struct {
	// Success is false only when the command could not be run
	// (binary missing, permission denied, bad working directory).
	Success bool

	// ExitCode is the process exit status; -1 when killed by a signal.
	ExitCode int

	// Stdout and Stderr hold the captured streams, byte-exact.
	Stdout string
	Stderr string

	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration

	// Killed is set when the process was terminated by timeout or cancellation.
	Killed     bool
	KillReason string

	// Truncated is set when either stream exceeded MaxOutputBytes.
	Truncated      bool
	TruncatedBytes int64

	ResourceUsage *ResourceUsage

	// Error describes the infrastructure failure when Success is false.
	Error string

	Command *Command
}

// IsError returns true if the command could not be executed.
func (r *ExecutionResult) IsError() bool {
	return !r.Success || r.Error != ""
}

// IsNonZeroExit returns true if the command ran but returned non-zero.
func (r *ExecutionResult) IsNonZeroExit() bool {
	return r.Success && r.ExitCode != 0
}

// IsComplete reports whether the run finished on its own with all output captured.
func (r *ExecutionResult) IsComplete() bool {
	return r.Success && !r.Killed && !r.Truncated
}

// ResourceUsage contains metrics about resource consumption.
type ResourceUsage struct {
	UserTimeMs   int64
	SystemTimeMs int64
	MaxRSSBytes  int64
}

// TotalCPUTimeMs returns user plus system time.
func (u *ResourceUsage) TotalCPUTimeMs() int64 {
	return u.UserTimeMs + u.SystemTimeMs
}

// ExecutorCapabilities describes what an executor supports.
type ExecutorCapabilities struct {
	Name                  string
	Platform              string
	SupportsResourceUsage bool
	SupportsStdin         bool
	SupportsProcessGroups bool
	MaxTimeout            time.Duration
	DefaultTimeout        time.Duration
}

// AuditEventType categorizes execution events.
type AuditEventType string

const (
	AuditEventStart    AuditEventType = "execution_start"
	AuditEventComplete AuditEventType = "execution_complete"
	AuditEventKilled   AuditEventType = "execution_killed"
	AuditEventError    AuditEventType = "execution_error"
)

// AuditEvent records one execution lifecycle event.
type AuditEvent struct {
	Type         AuditEventType
	Timestamp    time.Time
	Command      Command
	Result       *ExecutionResult
	SessionID    string
	ExecutorName string
}

// ExecutorConfig holds executor defaults.
type ExecutorConfig struct {
	// DefaultWorkingDir is used when Command.WorkingDirectory is empty.
	DefaultWorkingDir string

	DefaultTimeout time.Duration
	MaxTimeout     time.Duration

	// InheritEnvironment passes the whole parent environment; otherwise only
	// AllowedEnvironment keys are copied.
	InheritEnvironment bool
	AllowedEnvironment []string

	// MaxOutputBytes caps each captured stream.
	MaxOutputBytes int64

	EnableResourceUsage bool
}

// DefaultExecutorConfig returns sensible defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		DefaultWorkingDir:   "",
		DefaultTimeout:      5 * time.Minute,
		MaxTimeout:          24 * time.Hour,
		InheritEnvironment:  true,
		AllowedEnvironment:  []string{"PATH", "HOME", "USER", "LANG", "LC_ALL", "TMPDIR"},
		MaxOutputBytes:      64 << 20,
		EnableResourceUsage: true,
	}
}

// Merge combines this config with command-specific settings.
// Command settings override config defaults.
func (c ExecutorConfig) Merge(cmd Command) Command {
	result := cmd
	if result.WorkingDirectory == "" {
		result.WorkingDirectory = c.DefaultWorkingDir
	}

	limits := ResourceLimits{}
	if cmd.Limits != nil {
		limits = *cmd.Limits
	}
	if limits.TimeoutMs <= 0 {
		limits.TimeoutMs = c.DefaultTimeout.Milliseconds()
	}
	if c.MaxTimeout > 0 && limits.TimeoutMs > c.MaxTimeout.Milliseconds() {
		limits.TimeoutMs = c.MaxTimeout.Milliseconds()
	}
	if limits.MaxOutputBytes <= 0 {
		limits.MaxOutputBytes = c.MaxOutputBytes
	}
	result.Limits = &limits
	return result
}
