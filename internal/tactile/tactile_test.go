package tactile

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh -c")
	}
}

func TestDirectExecutor_Execute(t *testing.T) {
	skipOnWindows(t)
	executor := NewDirectExecutor()

	result, err := executor.Execute(context.Background(), ShellCommand("sh", "printf 'out'; printf 'err' >&2; exit 3"))
	require.NoError(t, err)

	assert.True(t, result.Success, "nonzero exit is not an infrastructure failure")
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "out", result.Stdout)
	assert.Equal(t, "err", result.Stderr)
	assert.True(t, result.IsNonZeroExit())
	assert.True(t, result.IsComplete())
	assert.False(t, result.IsError())
}

func TestDirectExecutor_BytesExact(t *testing.T) {
	skipOnWindows(t)
	executor := NewDirectExecutor()

	result, err := executor.Execute(context.Background(), ShellCommand("", `printf 'a\r\n\n  b \000c'`))
	require.NoError(t, err)
	assert.Equal(t, "a\r\n\n  b \x00c", result.Stdout)
}

func TestDirectExecutor_MissingBinary(t *testing.T) {
	executor := NewDirectExecutor()

	result, err := executor.Execute(context.Background(), Command{Binary: "definitely-not-a-real-binary-xyz"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.True(t, result.IsError())
}

func TestDirectExecutor_BadWorkingDirectory(t *testing.T) {
	skipOnWindows(t)
	executor := NewDirectExecutor()

	cmd := ShellCommand("sh", "true")
	cmd.WorkingDirectory = "/nonexistent/dir/for/chompie"
	result, err := executor.Execute(context.Background(), cmd)
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestDirectExecutor_Validate(t *testing.T) {
	executor := NewDirectExecutor()
	_, err := executor.Execute(context.Background(), Command{})
	assert.Error(t, err)
}

func TestDirectExecutor_Timeout(t *testing.T) {
	skipOnWindows(t)
	executor := NewDirectExecutor()

	cmd := ShellCommand("sh", "sleep 10")
	cmd.Limits = &ResourceLimits{TimeoutMs: 300}

	start := time.Now()
	result, err := executor.Execute(context.Background(), cmd)
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.True(t, result.Killed)
	assert.Contains(t, result.KillReason, "timeout")
	assert.False(t, result.IsComplete())
	assert.Less(t, elapsed, 5*time.Second)
}

func TestDirectExecutor_TimeoutKillsChildren(t *testing.T) {
	skipOnWindows(t)
	executor := NewDirectExecutor()

	// The backgrounded sleep keeps stdout open; without a group kill Run
	// would block until it exits.
	cmd := ShellCommand("sh", "sleep 30 & sleep 30")
	cmd.Limits = &ResourceLimits{TimeoutMs: 300}

	start := time.Now()
	result, err := executor.Execute(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, result.Killed)
	assert.Less(t, time.Since(start), waitDelay+2*time.Second)
}

func TestDirectExecutor_ContextCanceled(t *testing.T) {
	skipOnWindows(t)
	executor := NewDirectExecutor()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	result, err := executor.Execute(ctx, ShellCommand("sh", "sleep 10"))
	require.NoError(t, err)
	assert.True(t, result.Killed)
	assert.Equal(t, "context canceled", result.KillReason)
}

func TestDirectExecutor_OutputLimit(t *testing.T) {
	skipOnWindows(t)
	cfg := DefaultExecutorConfig()
	cfg.MaxOutputBytes = 10
	executor := NewDirectExecutorWithConfig(cfg)

	result, err := executor.Execute(context.Background(), ShellCommand("sh", "printf '0123456789abcdef'"))
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Equal(t, int64(6), result.TruncatedBytes)
	assert.Equal(t, "0123456789", result.Stdout)
	assert.False(t, result.IsComplete())
}

func TestDirectExecutor_Environment(t *testing.T) {
	skipOnWindows(t)
	t.Setenv("CHOMPIE_TEST_MARKER", "present")

	t.Run("inherit", func(t *testing.T) {
		executor := NewDirectExecutor()
		result, err := executor.Execute(context.Background(), ShellCommand("sh", "printf '%s' \"$CHOMPIE_TEST_MARKER\""))
		require.NoError(t, err)
		assert.Equal(t, "present", result.Stdout)
	})

	t.Run("allowlist only", func(t *testing.T) {
		cfg := DefaultExecutorConfig()
		cfg.InheritEnvironment = false
		executor := NewDirectExecutorWithConfig(cfg)
		cmd := ShellCommand("sh", "printf '%s|%s' \"$CHOMPIE_TEST_MARKER\" \"$EXTRA\"")
		cmd.Environment = []string{"EXTRA=yes"}
		result, err := executor.Execute(context.Background(), cmd)
		require.NoError(t, err)
		assert.Equal(t, "|yes", result.Stdout)
	})
}

func TestDirectExecutor_Audit(t *testing.T) {
	skipOnWindows(t)
	executor := NewDirectExecutor()
	metrics := NewExecutionMetrics()

	var events []AuditEventType
	executor.SetAuditCallback(func(e AuditEvent) {
		events = append(events, e.Type)
		metrics.RecordEvent(e)
	})

	_, err := executor.Execute(context.Background(), ShellCommand("sh", "true"))
	require.NoError(t, err)
	_, err = executor.Execute(context.Background(), Command{Binary: "definitely-not-a-real-binary-xyz"})
	require.NoError(t, err)

	assert.Equal(t, []AuditEventType{AuditEventStart, AuditEventComplete, AuditEventStart, AuditEventError}, events)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(2), snap.TotalExecutions)
	assert.Equal(t, int64(1), snap.CompletedExecutions)
	assert.Equal(t, int64(1), snap.FailedExecutions)
}

func TestExecutorConfig_Merge(t *testing.T) {
	cfg := ExecutorConfig{
		DefaultWorkingDir: "/work",
		DefaultTimeout:    time.Second,
		MaxTimeout:        2 * time.Second,
		MaxOutputBytes:    100,
	}

	merged := cfg.Merge(Command{Binary: "x"})
	assert.Equal(t, "/work", merged.WorkingDirectory)
	require.NotNil(t, merged.Limits)
	assert.Equal(t, int64(1000), merged.Limits.TimeoutMs)
	assert.Equal(t, int64(100), merged.Limits.MaxOutputBytes)

	merged = cfg.Merge(Command{Binary: "x", WorkingDirectory: "/own", Limits: &ResourceLimits{TimeoutMs: 60000}})
	assert.Equal(t, "/own", merged.WorkingDirectory)
	assert.Equal(t, int64(2000), merged.Limits.TimeoutMs, "capped at MaxTimeout")
}

func TestShellCommand(t *testing.T) {
	cmd := ShellCommand("bash", "echo hi")
	if runtime.GOOS == "windows" {
		assert.Equal(t, "cmd", cmd.Binary)
		assert.Equal(t, []string{"/C", "echo hi"}, cmd.Arguments)
		return
	}
	assert.Equal(t, "bash", cmd.Binary)
	assert.Equal(t, []string{"-c", "echo hi"}, cmd.Arguments)
	assert.Equal(t, "sh", ShellCommand("", "x").Binary)
	assert.True(t, strings.HasPrefix(cmd.CommandString(), "bash -c"))
}

func TestLimitedWriter(t *testing.T) {
	var sb strings.Builder
	lw := &limitedWriter{w: &sb, max: 5}

	n, err := lw.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = lw.Write([]byte("defg"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	n, err = lw.Write([]byte("h"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, "abcde", sb.String())
	assert.True(t, lw.truncated)
	assert.Equal(t, int64(3), lw.discarded)
}
