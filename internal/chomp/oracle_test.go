package chomp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chompie/internal/tactile"
)

func TestOracle_Strictness(t *testing.T) {
	o := NewOracle(Result{ExitCode: 0, Stdout: "ok", Stderr: ""})

	tests := []struct {
		name      string
		candidate Result
		want      Mismatch
	}{
		{"identical", Result{0, "ok", ""}, Mismatch{}},
		{"stderr only", Result{0, "ok", "warn"}, Mismatch{Stderr: true}},
		{"stdout only", Result{0, "ok\n", ""}, Mismatch{Stdout: true}},
		{"exit code only", Result{1, "ok", ""}, Mismatch{ExitCode: true}},
		{"stdout and stderr", Result{0, "no", "warn"}, Mismatch{Stdout: true, Stderr: true}},
		{"whitespace is significant", Result{0, "ok ", ""}, Mismatch{Stdout: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := o.Compare(tt.candidate)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, !tt.want.Any(), o.Matches(tt.candidate))
		})
	}
}

func TestOracle_Explain(t *testing.T) {
	o := NewOracle(Result{ExitCode: 0, Stdout: "ok\n"})

	assert.Equal(t, "match", o.Explain(Result{ExitCode: 0, Stdout: "ok\n"}))

	out := o.Explain(Result{ExitCode: 2, Stdout: "ok\n", Stderr: "boom\n"})
	assert.Contains(t, out, "mismatch in exit code, stderr")
	assert.Contains(t, out, "baseline 0, candidate 2")
	assert.Contains(t, out, "+boom")
	assert.Equal(t, "none", Mismatch{}.String())
}

func TestCaptureBaseline(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r := runnerFunc(func(context.Context) (Result, error) { return Result{Stdout: "1"}, nil })
		got, err := CaptureBaseline(context.Background(), r)
		require.NoError(t, err)
		assert.Equal(t, "1", got.Stdout)
	})

	t.Run("launch failure is fatal", func(t *testing.T) {
		r := runnerFunc(func(context.Context) (Result, error) { return Result{}, ErrLaunch })
		_, err := CaptureBaseline(context.Background(), r)
		assert.ErrorIs(t, err, ErrBaseline)
		assert.ErrorIs(t, err, ErrLaunch)
	})
}

type fakeExecutor struct {
	result *tactile.ExecutionResult
	err    error
}

func (f *fakeExecutor) Execute(context.Context, tactile.Command) (*tactile.ExecutionResult, error) {
	return f.result, f.err
}

func (f *fakeExecutor) Capabilities() tactile.ExecutorCapabilities {
	return tactile.ExecutorCapabilities{Name: "fake"}
}

func (f *fakeExecutor) Validate(tactile.Command) error { return nil }

func TestCommandRunner(t *testing.T) {
	tests := []struct {
		name    string
		exec    *fakeExecutor
		want    Result
		wantErr error
	}{
		{
			name: "nonzero exit is a normal result",
			exec: &fakeExecutor{result: &tactile.ExecutionResult{Success: true, ExitCode: 3, Stdout: "o", Stderr: "e"}},
			want: Result{ExitCode: 3, Stdout: "o", Stderr: "e"},
		},
		{
			name:    "could not launch",
			exec:    &fakeExecutor{result: &tactile.ExecutionResult{Success: false, Error: "exec: not found"}},
			wantErr: ErrLaunch,
		},
		{
			name:    "invalid command",
			exec:    &fakeExecutor{err: errors.New("binary is required")},
			wantErr: ErrLaunch,
		},
		{
			name:    "killed",
			exec:    &fakeExecutor{result: &tactile.ExecutionResult{Success: true, Killed: true, KillReason: "timeout after 1s"}},
			wantErr: ErrUndetermined,
		},
		{
			name:    "truncated",
			exec:    &fakeExecutor{result: &tactile.ExecutionResult{Success: true, Truncated: true, TruncatedBytes: 10}},
			wantErr: ErrUndetermined,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewCommandRunner(tt.exec, tactile.Command{Binary: "sh"})
			got, err := r.Run(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
